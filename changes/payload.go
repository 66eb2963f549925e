/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PayloadError reports a malformed collaborator payload. It carries the raw
// payload text so failures can be diagnosed without a regeneration loop.
type PayloadError struct {
	Raw string
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed change set payload: %v\n--- raw payload ---\n%s", e.Err, e.Raw)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// ParsePayload extracts the JSON change set from a model response (which may
// wrap it in markdown code fences), unmarshals it, and validates the result.
func ParsePayload(raw string) (*ChangeSet, error) {
	jsonContent := extractJSON(raw)

	var cs ChangeSet
	if err := json.Unmarshal([]byte(jsonContent), &cs); err != nil {
		return nil, &PayloadError{Raw: raw, Err: err}
	}

	if err := cs.Validate(); err != nil {
		return nil, &PayloadError{Raw: raw, Err: err}
	}

	return &cs, nil
}

// extractJSON extracts JSON content from a text response that may contain
// markdown code blocks. It looks for content between ```json and ``` markers,
// or returns the input trimmed if no markers are found.
func extractJSON(responseText string) string {
	lines := strings.Split(responseText, "\n")
	var jsonBuffer bytes.Buffer
	inJSONBlock := false
	foundJSON := false

	for _, line := range lines {
		if !inJSONBlock && line == "```json" {
			inJSONBlock = true
			foundJSON = true
			continue
		}

		if inJSONBlock && line == "```" {
			break
		}

		if inJSONBlock {
			if jsonBuffer.Len() > 0 {
				jsonBuffer.WriteString("\n")
			}
			jsonBuffer.WriteString(line)
		}
	}

	if foundJSON {
		return strings.TrimSpace(jsonBuffer.String())
	}

	// Fallback: sometimes models wrap the whole response in fences without a
	// language tag, or add stray whitespace.
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	return strings.TrimSpace(responseText)
}
