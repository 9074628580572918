// Package diagnosis runs the leaf image pipeline: decode, preprocess,
// inference, top-k decoding and response building.
package diagnosis

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"mime"
	"time"

	"go.uber.org/zap"

	"github.com/Brownie44l1/leaf-diagnose-api/internal/logging"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/model"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/preprocess"
)

const (
	// DefaultTopK is the number of ranked classes reported per request.
	DefaultTopK = 3
	// DefaultMaxPixels bounds the decoded bitmap of an upload.
	DefaultMaxPixels = 25_000_000
)

var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Engine produces logits for a prepared input tensor.
type Engine interface {
	Infer(input []float32) ([]float32, error)
}

// Upload is one image received by the boundary layer.
type Upload struct {
	RequestID   string
	ContentType string
	Data        []byte
	ReceivedAt  time.Time
}

// Service wires the startup artifacts and the engine into the per-request pipeline.
type Service struct {
	classes model.ClassIndex
	prep    *preprocess.Preprocessor
	engine  Engine
	topK    int
	maxPix  int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewService builds a Service. Non-positive topK and maxPixels fall back to
// DefaultTopK and DefaultMaxPixels.
func NewService(art *model.Artifacts, engine Engine, topK int, maxPixels int64, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Service{
		classes: art.Classes,
		prep:    preprocess.New(art.Preprocess),
		engine:  engine,
		topK:    topK,
		maxPix:  maxPixels,
		logger:  logger.Named("diagnosis"),
		now:     time.Now,
	}
}

// Diagnose classifies one upload. Client mistakes come back as
// ErrUnsupportedMediaType or ErrInvalidImage; anything else is an
// *logging.OperationError from the pipeline.
func (s *Service) Diagnose(up Upload) (*Response, error) {
	opLogger := logging.WithOperation(s.logger, "diagnosis.diagnose", up.RequestID)

	if err := CheckMediaType(up.ContentType); err != nil {
		return nil, err
	}

	// Dimensions are checked from the header so an oversized bitmap is never allocated.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		opLogger.Debug("image header decode failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > s.maxPix {
		opLogger.Warn("image dimensions over limit",
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height),
			zap.Int64("max_pixels", s.maxPix))
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, s.maxPix)
	}

	img, format, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		opLogger.Debug("image decode failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	opLogger.Debug("image decoded",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	input := s.prep.Prepare(img)

	logits, err := s.engine.Infer(input)
	if err != nil {
		return nil, logging.NewOperationError("model.infer", up.RequestID, err)
	}
	if len(logits) == 0 {
		return nil, logging.NewOperationError("model.infer", up.RequestID, fmt.Errorf("model returned no logits"))
	}
	for i, v := range logits {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, logging.NewOperationError("model.infer", up.RequestID, fmt.Errorf("model returned non-finite logit %v at class %d", v, i))
		}
	}

	confidences, ids := TopK(logits, s.topK)
	resp := BuildResponse(confidences, ids, s.classes, up.ReceivedAt, s.now())

	opLogger.Info("diagnosis complete",
		zap.String("diagnosis", resp.Diagnosis),
		zap.Float64("confidence", resp.Confidence),
		zap.Int64("processing_ms", resp.ProcessingMs))
	return resp, nil
}

// CheckMediaType accepts image/jpeg and image/png, ignoring case and parameters.
func CheckMediaType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}
	if !allowedMediaTypes[mediaType] {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
	}
	return nil
}
