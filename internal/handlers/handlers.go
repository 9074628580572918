package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/leaf-diagnose-api/internal/diagnosis"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/logging"
)

// multipartOverhead is the room left for boundaries and part headers on top
// of the file size limit.
const multipartOverhead = 64 << 10

// Diagnoser runs the classification pipeline for one upload.
type Diagnoser interface {
	Diagnose(up diagnosis.Upload) (*diagnosis.Response, error)
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	svc            Diagnoser
	logger         *zap.Logger
	maxUploadBytes int64
}

func NewHandler(svc Diagnoser, logger *zap.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		svc:            svc,
		logger:         logger.Named("handlers"),
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Diagnose handles POST /api/diagnose with a multipart "image" field.
func (h *Handler) Diagnose(c *gin.Context) {
	requestID := RequestID(c)
	received := ReceivedAt(c)
	opLogger := logging.WithOperation(h.logger, "handlers.diagnose", requestID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		abort(c, http.StatusBadRequest, `Image is required in field "image"`)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		abort(c, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := diagnosis.CheckMediaType(contentType); err != nil {
		abort(c, http.StatusUnsupportedMediaType, "Unsupported media type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		opLogger.Error("failed to read upload", zap.Error(err))
		abort(c, http.StatusInternalServerError, "Failed to read image")
		return
	}

	opLogger.Debug("received upload",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.String("content_type", contentType))

	resp, err := h.svc.Diagnose(diagnosis.Upload{
		RequestID:   requestID,
		ContentType: contentType,
		Data:        data,
		ReceivedAt:  received,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, diagnosis.ErrUnsupportedMediaType):
		abort(c, http.StatusUnsupportedMediaType, "Unsupported media type")
	case errors.Is(err, diagnosis.ErrInvalidImage):
		abort(c, http.StatusBadRequest, "Invalid image file")
	default:
		opLogger.Error("diagnosis failed", zap.Error(err))
		abort(c, http.StatusInternalServerError, "Diagnosis failed")
	}
}

func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

// ReceivedAt returns when the request entered the router, falling back to now.
func ReceivedAt(c *gin.Context) time.Time {
	if v, ok := c.Get(receivedAtKey); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Now()
}
