package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// EngineOptions configures the ONNX Runtime session.
type EngineOptions struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
}

// ONNXEngine runs the exported classifier through ONNX Runtime. The session
// is bound to a single input and output tensor, so calls to Infer are
// serialized.
type ONNXEngine struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputLen     int
	numClasses   int
}

// NewONNXEngine loads the model at opts.ModelPath. The input tensor is shaped
// from prep; the class count comes from the model's declared output shape
// when it is static, otherwise from the class index.
func NewONNXEngine(opts EngineOptions, prep PreprocessConfig, classes ClassIndex) (*ONNXEngine, error) {
	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	numClasses, err := outputClasses(opts, classes)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(prep.InputShape()...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numClasses)))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEngine{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputLen:     prep.InputLen(),
		numClasses:   numClasses,
	}, nil
}

func outputClasses(opts EngineOptions, classes ClassIndex) (int, error) {
	_, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect model %s: %w", opts.ModelPath, err)
	}

	for _, info := range outputs {
		if info.Name != opts.OutputName {
			continue
		}
		dims := info.Dimensions
		if len(dims) > 0 && dims[len(dims)-1] > 0 {
			return int(dims[len(dims)-1]), nil
		}
		if n := classes.MaxID() + 1; n > 0 {
			return n, nil
		}
		return 0, fmt.Errorf("output %q has a dynamic class dimension and the class index is empty", opts.OutputName)
	}
	return 0, fmt.Errorf("model has no output named %q", opts.OutputName)
}

// NumClasses is the length of the logits vector returned by Infer.
func (e *ONNXEngine) NumClasses() int {
	return e.numClasses
}

// Infer runs one forward pass and returns a copy of the logits.
func (e *ONNXEngine) Infer(input []float32) ([]float32, error) {
	if len(input) != e.inputLen {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), e.inputLen)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.inputTensor.GetData(), input)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	logits := make([]float32, e.numClasses)
	copy(logits, e.outputTensor.GetData())
	return logits, nil
}

// Close releases the session, its tensors and the ONNX environment.
func (e *ONNXEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
	ort.DestroyEnvironment()
}
