package model

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Options locate the exported model on disk.
type Options struct {
	ModelPath    string
	MetadataPath string
	// LibraryPath points at the onnxruntime shared library; empty uses the platform default.
	LibraryPath string
	TopK        int
}

// ONNXClassifier runs an image-classification model through onnxruntime.
// Tensors are allocated once and shared, so inference is serialised.
type ONNXClassifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	topK         int
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func NewONNXClassifier(opts Options) (*ONNXClassifier, error) {
	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &ONNXClassifier{
		session:      session,
		Metadata:     metadata,
		topK:         topK,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (c *ONNXClassifier) Predict(ctx context.Context, img image.Image) ([]Prediction, error) {
	if img == nil {
		return nil, fmt.Errorf("no image")
	}
	inputData := Preprocess(img, c.Metadata)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	copy(c.inputTensor.GetData(), inputData)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return c.rank(c.outputTensor.GetData())
}

func (c *ONNXClassifier) rank(outputData []float32) ([]Prediction, error) {
	if len(outputData) == 0 {
		return nil, fmt.Errorf("model produced no output")
	}

	var scores []float64
	if c.Metadata.ApplySoftmax {
		n := min(len(outputData), len(c.Metadata.Classes))
		scores = Softmax(outputData[:n])
	} else {
		scores = make([]float64, len(outputData))
		for i, v := range outputData {
			scores[i] = float64(v)
		}
	}

	return Rank(scores, c.Metadata.Classes, c.topK), nil
}

func (c *ONNXClassifier) Close() {
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	ort.DestroyEnvironment()
}
