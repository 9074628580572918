package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/leaf-diagnose-api/internal/config"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/diagnosis"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/handlers"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/logging"
	"github.com/Brownie44l1/leaf-diagnose-api/internal/model"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("loading artifacts",
		zap.String("class_index", cfg.ClassIndexPath()),
		zap.String("preprocess", cfg.PreprocessPath()),
		zap.String("model", cfg.ModelPath()))

	art, err := model.LoadArtifacts(cfg.ClassIndexPath(), cfg.PreprocessPath())
	if err != nil {
		logger.Fatal("failed to load artifacts", zap.Error(logging.NewOperationError("artifacts.load", "", err)))
	}

	engine, err := model.NewONNXEngine(model.EngineOptions{
		ModelPath:   cfg.ModelPath(),
		LibraryPath: cfg.ONNX.LibraryPath,
		InputName:   cfg.ONNX.InputName,
		OutputName:  cfg.ONNX.OutputName,
	}, art.Preprocess, art.Classes)
	if err != nil {
		logger.Fatal("failed to load model", zap.Error(logging.NewOperationError("model.load", "", err)))
	}
	defer engine.Close()

	logger.Info("model loaded",
		zap.Int("classes", len(art.Classes)),
		zap.Int("outputs", engine.NumClasses()),
		zap.Int("input_width", art.Preprocess.InputWidth),
		zap.Int("input_height", art.Preprocess.InputHeight))
	if engine.NumClasses() != len(art.Classes) {
		logger.Warn("class index does not cover every model output; unmapped ids are reported by number",
			zap.Int("classes", len(art.Classes)),
			zap.Int("outputs", engine.NumClasses()))
	}

	svc := diagnosis.NewService(art, engine, cfg.Inference.TopK, cfg.Server.MaxPixels, logger)

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.NewHandler(svc, logger, cfg.Server.MaxUploadBytes), logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("diagnosis API listening", zap.String("addr", server.Addr))
	if err := serveHTTPServer(server, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

// serveHTTPServerWithOptions serves until the server fails or a signal
// arrives, then drains in-flight requests for up to shutdownTimeout. A nil
// listener means ListenAndServe; a nil signalCh means SIGINT/SIGTERM.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
