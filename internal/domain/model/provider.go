// Package model abstracts the hosted multimodal model behind a one-shot
// conversation interface.
package model

import (
	"context"
)

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Image is a normalized attachment ready for the wire.
type Image struct {
	Data   []byte
	Format string
}

// Params are the sampling parameters for a single call.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Request is everything needed for one completion.
type Request struct {
	System  string
	History []Message
	Text    string
	Image   *Image
	Params  Params
}

// Provider produces a single completion per request. Implementations wrap a
// hosted model API.
type Provider interface {
	Converse(ctx context.Context, req Request) (string, error)
}
