package model

// Metadata describes an exported classifier: tensor shapes, class labels and
// the preprocessing the model was trained with.
type Metadata struct {
	InputShape         []int64   `json:"input_shape"`
	OutputShape        []int64   `json:"output_shape"`
	Classes            []string  `json:"classes"`
	ImageSize          int       `json:"image_size"`
	ResizeShortestEdge int       `json:"resize_shortest_edge,omitempty"`
	Mean               []float32 `json:"mean,omitempty"`
	Std                []float32 `json:"std,omitempty"`
	InputName          string    `json:"input_name,omitempty"`
	OutputName         string    `json:"output_name,omitempty"`
	ApplySoftmax       bool      `json:"apply_softmax"`
}

// Prediction is one ranked (label, score) pair. Score is a probability in [0,1].
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type PredictionResponse struct {
	Class       string       `json:"class"`
	Confidence  float64      `json:"confidence"`
	Predictions []Prediction `json:"predictions"`
}

// NewPredictionResponse builds the classifier-only API payload from a ranked list.
func NewPredictionResponse(preds []Prediction) PredictionResponse {
	resp := PredictionResponse{Predictions: preds}
	if len(preds) > 0 {
		resp.Class = preds[0].Label
		resp.Confidence = preds[0].Score
	}
	return resp
}
