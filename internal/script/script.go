// Package script parses and validates dutrun test scripts.
//
// A test script is a JSON document describing the prompts expected from the
// device under test and the responses sent back:
//
//	{
//	  "start":  { "prompt": "READY", "response": "GO", "timeout": 30 },
//	  "end":    { "prompt": "DONE" },
//	  "timeout": 15,
//	  "confirm": { "prompt": "Proceed?", "response": "y" }
//	}
//
// "start", "end", and the top-level "timeout" are reserved. Every other
// top-level entry is a user prompt, matched in document declaration order.
// A Script value is either fully valid or never constructed; all validation
// happens at parse time.
package script

import (
	"fmt"
	"math"
	"os"

	"github.com/tidwall/gjson"
)

// Timeout defaults in seconds, applied when the script omits the
// corresponding key.
const (
	DefaultStartTimeout = 10
	DefaultIdleTimeout  = 10
)

// Reserved top-level keys that never become user prompts.
const (
	keyStart   = "start"
	keyEnd     = "end"
	keyTimeout = "timeout"
)

// UserPrompt is one scripted prompt/response pair.
type UserPrompt struct {
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// Script is a fully validated test script.
type Script struct {
	// StartPrompt is the substring that begins a run; StartResponse is
	// sent when it is seen.
	StartPrompt   string `json:"startPrompt"`
	StartResponse string `json:"startResponse"`

	// StartTimeout is the hard deadline, in seconds, for the start prompt
	// to appear, measured from run start.
	StartTimeout int `json:"startTimeout"`

	// EndPrompt is the substring that ends a run cleanly.
	EndPrompt string `json:"endPrompt"`

	// IdleTimeout is the inactivity limit, in seconds, during the running
	// phase. It resets every time data arrives.
	IdleTimeout int `json:"idleTimeout"`

	// UserPrompts are matched in document declaration order.
	UserPrompts []UserPrompt `json:"userPrompts,omitempty"`
}

// Error is a script validation error naming the offending key.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("script key %q: %s", e.Key, e.Reason)
}

func errKey(key, reason string) *Error {
	return &Error{Key: key, Reason: reason}
}

// Load reads and parses a test script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(data)
}

// Parse validates raw JSON and returns the typed script.
func Parse(data []byte) (*Script, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("script is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("script root must be a JSON object")
	}

	s := &Script{
		StartTimeout: DefaultStartTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	start := root.Get(keyStart)
	if !start.IsObject() {
		return nil, errKey(keyStart, "missing required section")
	}

	var err error
	if s.StartPrompt, err = requiredString(start, keyStart, "prompt"); err != nil {
		return nil, err
	}

	resp := start.Get("response")
	if !resp.Exists() || resp.Type != gjson.String {
		return nil, errKey(keyStart, "missing response")
	}
	s.StartResponse = resp.String()

	if t := start.Get(keyTimeout); t.Exists() {
		if s.StartTimeout, err = positiveInt(t, keyStart+"."+keyTimeout); err != nil {
			return nil, err
		}
	}

	end := root.Get(keyEnd)
	if !end.IsObject() {
		return nil, errKey(keyEnd, "missing required section")
	}
	if s.EndPrompt, err = requiredString(end, keyEnd, "prompt"); err != nil {
		return nil, err
	}

	if t := root.Get(keyTimeout); t.Exists() {
		if s.IdleTimeout, err = positiveInt(t, keyTimeout); err != nil {
			return nil, err
		}
	}

	// Everything else becomes a user prompt, in declaration order.
	var iterErr error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == keyStart || name == keyEnd || name == keyTimeout {
			return true
		}

		up, err := parseUserPrompt(name, value)
		if err != nil {
			iterErr = err
			return false
		}

		s.UserPrompts = append(s.UserPrompts, up)
		return true
	})

	if iterErr != nil {
		return nil, iterErr
	}

	return s, nil
}

func parseUserPrompt(name string, value gjson.Result) (UserPrompt, error) {
	if !value.IsObject() {
		return UserPrompt{}, errKey(name, "user prompt must be an object")
	}

	prompt := value.Get("prompt")
	if !prompt.Exists() || prompt.Type != gjson.String || prompt.String() == "" {
		return UserPrompt{}, errKey(name, "missing prompt")
	}

	resp := value.Get("response")
	if !resp.Exists() || resp.Type != gjson.String || resp.String() == "" {
		return UserPrompt{}, errKey(name, "missing response")
	}

	return UserPrompt{
		Name:     name,
		Prompt:   prompt.String(),
		Response: resp.String(),
	}, nil
}

func requiredString(section gjson.Result, sectionKey, field string) (string, error) {
	v := section.Get(field)
	if !v.Exists() || v.Type != gjson.String || v.String() == "" {
		return "", errKey(sectionKey, "missing "+field)
	}

	return v.String(), nil
}

func positiveInt(v gjson.Result, key string) (int, error) {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, errKey(key, "must be an integer")
	}

	n := int(v.Num)
	if n <= 0 {
		return 0, errKey(key, "must be greater than zero")
	}

	return n, nil
}
