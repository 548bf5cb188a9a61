// Package reply interprets raw model completions. Models asked for JSON
// frequently wrap it in prose or markdown fences, so interpretation is
// tolerant: extract the widest brace-delimited slice, parse it strictly, and
// fall back to plain text when that fails.
package reply

import (
	"strings"

	"github.com/bytedance/sonic"
)

const (
	TypeStructured = "structured"
	TypeText       = "text"
)

// Reply is the interpreted form of a model completion.
type Reply struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Structured returns the parsed object when Type is structured, nil
// otherwise.
func (r Reply) Structured() map[string]interface{} {
	if r.Type != TypeStructured {
		return nil
	}
	obj, _ := r.Data.(map[string]interface{})
	return obj
}

// Text returns the original completion when Type is text, empty otherwise.
func (r Reply) Text() string {
	if r.Type != TypeText {
		return ""
	}
	s, _ := r.Data.(string)
	return s
}

// Interpret parses raw into a structured reply when it contains a valid JSON
// object, otherwise returns the full raw text untouched.
func Interpret(raw string) Reply {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Reply{Type: TypeText, Data: raw}
	}

	candidate := raw[start : end+1]

	var parsed map[string]interface{}
	if err := sonic.UnmarshalString(candidate, &parsed); err != nil {
		return Reply{Type: TypeText, Data: raw}
	}

	return Reply{Type: TypeStructured, Data: parsed}
}
