package model

// Question is a single prompt/answer pair. The answer is a float so decimal
// topics share the same shape as integer ones.
type Question struct {
	Q string  `json:"q"`
	A float64 `json:"a"`
}
