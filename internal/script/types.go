package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"reelforge/internal/services"
)

// Section is one narrated beat of the video. BRoll is a free-form search
// hint for stock footage and may be empty.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	BRoll   string `json:"b_roll"`
}

// ScriptObject is the structured content artifact consumed by every stage
// after script generation. All six top-level keys must be present in the
// model response; sections must be non-empty and each section must carry
// all three of heading, body and b_roll.
type ScriptObject struct {
	Title    string    `json:"title"`
	Hook     string    `json:"hook"`
	Sections []Section `json:"sections"`
	CTA      string    `json:"cta"`
	Tags     []string  `json:"tags"`
	Shorts   []string  `json:"shorts"`
}

var requiredKeys = []string{"title", "hook", "sections", "cta", "tags", "shorts"}

var sectionKeys = []string{"heading", "body", "b_roll"}

// Parse decodes and validates a model-produced script payload. A payload
// carrying an "error" key is a content refusal and maps to
// services.ErrContentRejected; shape violations map to
// services.ErrMalformedResponse. Neither outcome is retriable.
func Parse(payload []byte) (*ScriptObject, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "script", "parse", "response is not a JSON object", err)
	}
	if msg, ok := raw["error"]; ok {
		return nil, refusalError(raw, msg)
	}
	var missing []string
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrMalformedResponse, "script", "validate",
			fmt.Sprintf("invalid script object: missing required keys %s", strings.Join(missing, ", ")), nil)
	}

	var obj ScriptObject
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "script", "parse", "script object has wrong field types", err)
	}
	if strings.TrimSpace(obj.Title) == "" {
		return nil, services.Wrap(services.ErrMalformedResponse, "script", "validate", "invalid script object: title is empty", nil)
	}
	if len(obj.Sections) == 0 {
		return nil, services.Wrap(services.ErrMalformedResponse, "script", "validate", "invalid script object: sections is empty", nil)
	}
	if err := validateSectionKeys(raw["sections"]); err != nil {
		return nil, err
	}
	return &obj, nil
}

// validateSectionKeys checks that every section element carries all three
// keys. Empty string values are allowed; absent keys are not.
func validateSectionKeys(rawSections json.RawMessage) error {
	var elems []map[string]json.RawMessage
	if err := json.Unmarshal(rawSections, &elems); err != nil {
		return services.Wrap(services.ErrMalformedResponse, "script", "validate", "invalid script object: sections is not a list of objects", err)
	}
	for i, elem := range elems {
		for _, key := range sectionKeys {
			if _, ok := elem[key]; !ok {
				return services.Wrap(services.ErrMalformedResponse, "script", "validate",
					fmt.Sprintf("invalid script object: section %d missing key %q", i, key), nil)
			}
		}
	}
	return nil
}

func refusalError(raw map[string]json.RawMessage, msg json.RawMessage) error {
	var code string
	if err := json.Unmarshal(msg, &code); err != nil {
		code = strings.Trim(string(msg), `"`)
	}
	detail := code
	var reason string
	if r, ok := raw["reason"]; ok {
		if err := json.Unmarshal(r, &reason); err == nil && reason != "" {
			detail = fmt.Sprintf("%s: %s", code, reason)
		}
	}
	return services.Wrap(services.ErrContentRejected, "script", "generate",
		fmt.Sprintf("model declined topic (%s)", detail), nil)
}

// NarrationText flattens the script into the single text block handed to
// the narration stage: hook, then "heading. body" per section, then CTA.
func (s *ScriptObject) NarrationText() string {
	parts := make([]string, 0, len(s.Sections)+2)
	if hook := strings.TrimSpace(s.Hook); hook != "" {
		parts = append(parts, hook)
	}
	for _, sec := range s.Sections {
		heading := strings.TrimSpace(sec.Heading)
		body := strings.TrimSpace(sec.Body)
		switch {
		case heading != "" && body != "":
			parts = append(parts, heading+". "+body)
		case heading != "":
			parts = append(parts, heading+".")
		case body != "":
			parts = append(parts, body)
		}
	}
	if cta := strings.TrimSpace(s.CTA); cta != "" {
		parts = append(parts, cta)
	}
	return strings.Join(parts, " ")
}

// Description renders the YouTube description body from hook, sections
// and CTA.
func (s *ScriptObject) Description() string {
	var b strings.Builder
	if hook := strings.TrimSpace(s.Hook); hook != "" {
		b.WriteString(hook)
		b.WriteString("\n\n")
	}
	for _, sec := range s.Sections {
		if heading := strings.TrimSpace(sec.Heading); heading != "" {
			b.WriteString(heading)
			b.WriteString("\n")
		}
		if body := strings.TrimSpace(sec.Body); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if cta := strings.TrimSpace(s.CTA); cta != "" {
		b.WriteString(cta)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
