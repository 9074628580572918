package diagnosis

import (
	"time"

	"github.com/Brownie44l1/leaf-diagnose-api/internal/model"
)

// Alternative is a runner-up class.
type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Response is the body returned for a successful diagnosis.
type Response struct {
	Diagnosis       string        `json:"diagnosis"`
	Confidence      float64       `json:"confidence"`
	Alternatives    []Alternative `json:"alternatives"`
	Recommendations []string      `json:"recommendations"`
	ProcessingMs    int64         `json:"processing_ms"`
}

// BuildResponse labels decoded top-k results. confidences and classIDs are
// parallel, highest first, and must not be empty. processing_ms is the
// elapsed time since receivedAt, truncated to whole milliseconds.
func BuildResponse(confidences []float64, classIDs []int, classes model.ClassIndex, receivedAt, now time.Time) *Response {
	top := classes.Label(classIDs[0])

	alternatives := make([]Alternative, 0, len(classIDs)-1)
	for i := 1; i < len(classIDs); i++ {
		alternatives = append(alternatives, Alternative{
			Label:      classes.Label(classIDs[i]),
			Confidence: confidences[i],
		})
	}

	elapsed := now.Sub(receivedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return &Response{
		Diagnosis:       top,
		Confidence:      confidences[0],
		Alternatives:    alternatives,
		Recommendations: Recommendations(top),
		ProcessingMs:    elapsed,
	}
}
