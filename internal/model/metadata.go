package model

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	defaultInputName  = "input"
	defaultOutputName = "output"
)

// LoadMetadata reads and validates the JSON sidecar exported next to the ONNX model.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	meta.applyDefaults()
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = defaultInputName
	}
	if m.OutputName == "" {
		m.OutputName = defaultOutputName
	}
	if len(m.Mean) == 0 {
		m.Mean = []float32{0, 0, 0}
	}
	if len(m.Std) == 0 {
		m.Std = []float32{1, 1, 1}
	}
	if len(m.InputShape) == 0 && m.ImageSize > 0 {
		m.InputShape = []int64{1, 3, int64(m.ImageSize), int64(m.ImageSize)}
	}
	if len(m.OutputShape) == 0 && len(m.Classes) > 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
}

// Validate checks that the metadata is internally consistent: the input tensor
// holds exactly one RGB image of ImageSize and the output covers every class.
func (m Metadata) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("metadata lists no classes")
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("invalid image_size %d", m.ImageSize)
	}
	if m.ResizeShortestEdge != 0 && m.ResizeShortestEdge < m.ImageSize {
		return fmt.Errorf("resize_shortest_edge %d is smaller than image_size %d", m.ResizeShortestEdge, m.ImageSize)
	}
	if len(m.Mean) != 3 || len(m.Std) != 3 {
		return fmt.Errorf("mean and std need one value per RGB channel")
	}
	for _, s := range m.Std {
		if s == 0 {
			return fmt.Errorf("std must not contain zero")
		}
	}
	if want, got := int64(3*m.ImageSize*m.ImageSize), elements(m.InputShape); want != got {
		return fmt.Errorf("input_shape %v holds %d values, expected %d", m.InputShape, got, want)
	}
	if got := elements(m.OutputShape); got < int64(len(m.Classes)) {
		return fmt.Errorf("output_shape %v is smaller than the %d classes", m.OutputShape, len(m.Classes))
	}
	return nil
}

func elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}
