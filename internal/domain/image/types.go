package image

import "image/color"

// Attachment is an image payload as it arrives from a client, either base64
// or raw bytes.
type Attachment struct {
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"`
}

// ValidationResult captures the outcome of payload validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	ColorModel   color.Model
	Error        error
	SecurityRisk string
}

// Normalized is the model-ready artifact produced by the normalizer. Data is
// always baseline JPEG.
type Normalized struct {
	Data    []byte
	Format  string
	Width   int
	Height  int
	Quality int
	// Resized reports whether the payload was re-encoded at all. False means
	// the input already conformed and was passed through untouched.
	Resized bool
}
