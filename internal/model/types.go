package model

import "strconv"

// ClassIndex maps a model output position to its human-readable label.
type ClassIndex map[int]string

// Label returns the label for id, or the decimal id when it is unmapped.
func (c ClassIndex) Label(id int) string {
	if label, ok := c[id]; ok {
		return label
	}
	return strconv.Itoa(id)
}

// MaxID returns the largest class id present, or -1 for an empty index.
func (c ClassIndex) MaxID() int {
	maxID := -1
	for id := range c {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// PreprocessConfig describes the input transform the model was exported with.
type PreprocessConfig struct {
	InputWidth  int
	InputHeight int
	Mean        [3]float32
	Std         [3]float32
}

// InputShape is the NCHW shape of a single prepared image.
func (p PreprocessConfig) InputShape() []int64 {
	return []int64{1, 3, int64(p.InputHeight), int64(p.InputWidth)}
}

// InputLen is the number of float32 values in a prepared image.
func (p PreprocessConfig) InputLen() int {
	return 3 * p.InputWidth * p.InputHeight
}

// Artifacts bundles the startup-loaded configuration artifacts.
type Artifacts struct {
	Classes    ClassIndex
	Preprocess PreprocessConfig
}

// preprocessFile mirrors preprocess.json on disk.
type preprocessFile struct {
	InputSize     []int     `json:"input_size"`
	NormalizeMean []float32 `json:"normalize_mean"`
	NormalizeStd  []float32 `json:"normalize_std"`
}
