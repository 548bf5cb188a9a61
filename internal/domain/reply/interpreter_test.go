package reply

import (
	"testing"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
	}{
		{"bare json object", `{"ingredients":["milk"]}`, TypeStructured},
		{"json in markdown fence", "```json\n{\"recipes\":[]}\n```", TypeStructured},
		{"json wrapped in prose", `Here is what I found: {"grocery_list":["eggs"]} hope that helps!`, TypeStructured},
		{"plain prose", "You could make an omelette with those eggs.", TypeText},
		{"empty string", "", TypeText},
		{"braces but invalid json", `result: {not json at all}`, TypeText},
		{"closing brace before opening", `} nothing here {`, TypeText},
		{"nested object", `{"recipes":[{"title":"Pasta","steps":["boil water"]}]}`, TypeStructured},
		{"truncated json", `{"ingredients":["milk"`, TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.raw)
			if got.Type != tt.wantType {
				t.Errorf("Interpret(%q).Type = %s, want %s", tt.raw, got.Type, tt.wantType)
			}
		})
	}
}

func TestInterpretStructuredPayload(t *testing.T) {
	got := Interpret(`Sure! {"ingredients":["milk","eggs"],"grocery_list":["flour"]}`)

	obj := got.Structured()
	if obj == nil {
		t.Fatal("expected structured payload")
	}
	ingredients, ok := obj["ingredients"].([]interface{})
	if !ok || len(ingredients) != 2 {
		t.Errorf("ingredients = %#v", obj["ingredients"])
	}
	if ingredients[0] != "milk" {
		t.Errorf("first ingredient = %v, want milk", ingredients[0])
	}
}

func TestInterpretTextKeepsFullCompletion(t *testing.T) {
	raw := "prefix {broken json} suffix"
	got := Interpret(raw)

	if got.Text() != raw {
		t.Errorf("Text() = %q, want the untouched completion %q", got.Text(), raw)
	}
}

func TestStructuredAccessorOnText(t *testing.T) {
	got := Interpret("just words")
	if got.Structured() != nil {
		t.Error("Structured() should be nil for text replies")
	}
	if Interpret(`{"a":1}`).Text() != "" {
		t.Error("Text() should be empty for structured replies")
	}
}
