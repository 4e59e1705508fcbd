package script

import (
	"errors"
	"strings"
	"testing"
)

const minimalScript = `{
	"start": { "prompt": "READY", "response": "GO" },
	"end":   { "prompt": "DONE" }
}`

func TestParse_MinimalDefaults(t *testing.T) {
	s, err := Parse([]byte(minimalScript))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.StartPrompt != "READY" {
		t.Errorf("StartPrompt = %q, want %q", s.StartPrompt, "READY")
	}
	if s.StartResponse != "GO" {
		t.Errorf("StartResponse = %q, want %q", s.StartResponse, "GO")
	}
	if s.EndPrompt != "DONE" {
		t.Errorf("EndPrompt = %q, want %q", s.EndPrompt, "DONE")
	}
	if s.StartTimeout != DefaultStartTimeout {
		t.Errorf("StartTimeout = %d, want default %d", s.StartTimeout, DefaultStartTimeout)
	}
	if s.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("IdleTimeout = %d, want default %d", s.IdleTimeout, DefaultIdleTimeout)
	}
	if len(s.UserPrompts) != 0 {
		t.Errorf("UserPrompts = %v, want none", s.UserPrompts)
	}
}

func TestParse_TimeoutOverrides(t *testing.T) {
	s, err := Parse([]byte(`{
		"start": { "prompt": "READY", "response": "GO", "timeout": 30 },
		"end":   { "prompt": "DONE" },
		"timeout": 45
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if s.StartTimeout != 30 {
		t.Errorf("StartTimeout = %d, want 30", s.StartTimeout)
	}
	if s.IdleTimeout != 45 {
		t.Errorf("IdleTimeout = %d, want 45", s.IdleTimeout)
	}
}

func TestParse_UserPromptsDeclarationOrder(t *testing.T) {
	s, err := Parse([]byte(`{
		"start":  { "prompt": "READY", "response": "GO" },
		"zebra":  { "prompt": "Z?", "response": "z" },
		"end":    { "prompt": "DONE" },
		"apple":  { "prompt": "A?", "response": "a" },
		"mango":  { "prompt": "M?", "response": "m" }
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"zebra", "apple", "mango"}
	if len(s.UserPrompts) != len(want) {
		t.Fatalf("got %d user prompts, want %d", len(s.UserPrompts), len(want))
	}

	for i, name := range want {
		if s.UserPrompts[i].Name != name {
			t.Errorf("UserPrompts[%d].Name = %q, want %q (document order)", i, s.UserPrompts[i].Name, name)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
	}{
		{
			name:    "missing start section",
			input:   `{"end": {"prompt": "DONE"}}`,
			wantKey: "start",
		},
		{
			name:    "missing start prompt",
			input:   `{"start": {"response": "GO"}, "end": {"prompt": "DONE"}}`,
			wantKey: "start",
		},
		{
			name:    "empty start prompt",
			input:   `{"start": {"prompt": "", "response": "GO"}, "end": {"prompt": "DONE"}}`,
			wantKey: "start",
		},
		{
			name:    "missing start response",
			input:   `{"start": {"prompt": "READY"}, "end": {"prompt": "DONE"}}`,
			wantKey: "start",
		},
		{
			name:    "missing end section",
			input:   `{"start": {"prompt": "READY", "response": "GO"}}`,
			wantKey: "end",
		},
		{
			name:    "missing end prompt",
			input:   `{"start": {"prompt": "READY", "response": "GO"}, "end": {}}`,
			wantKey: "end",
		},
		{
			name:    "user prompt without response",
			input:   minimalUserPrompt(`{"prompt": "P?"}`),
			wantKey: "confirm",
		},
		{
			name:    "user prompt without prompt",
			input:   minimalUserPrompt(`{"response": "y"}`),
			wantKey: "confirm",
		},
		{
			name:    "user prompt not an object",
			input:   minimalUserPrompt(`"yes"`),
			wantKey: "confirm",
		},
		{
			name:    "non-integer idle timeout",
			input:   `{"start": {"prompt": "R", "response": "G"}, "end": {"prompt": "D"}, "timeout": 1.5}`,
			wantKey: "timeout",
		},
		{
			name:    "string start timeout",
			input:   `{"start": {"prompt": "R", "response": "G", "timeout": "10"}, "end": {"prompt": "D"}}`,
			wantKey: "start.timeout",
		},
		{
			name:    "zero idle timeout",
			input:   `{"start": {"prompt": "R", "response": "G"}, "end": {"prompt": "D"}, "timeout": 0}`,
			wantKey: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}

			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("Parse() error = %v, want *script.Error", err)
			}

			if serr.Key != tt.wantKey {
				t.Errorf("error key = %q, want %q (err: %v)", serr.Key, tt.wantKey, err)
			}
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"start":`))
	if err == nil {
		t.Fatal("Parse() succeeded on truncated JSON, want error")
	}
	if !strings.Contains(err.Error(), "JSON") {
		t.Errorf("error = %v, want mention of JSON", err)
	}
}

func TestParse_NonObjectRoot(t *testing.T) {
	_, err := Parse([]byte(`[1, 2, 3]`))
	if err == nil {
		t.Fatal("Parse() succeeded on array root, want error")
	}
}

// minimalUserPrompt builds a valid script plus one "confirm" entry with
// the given raw JSON value.
func minimalUserPrompt(value string) string {
	return `{
		"start": { "prompt": "READY", "response": "GO" },
		"end":   { "prompt": "DONE" },
		"confirm": ` + value + `
	}`
}
