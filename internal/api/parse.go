package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var errNotAList = errors.New(`paginated response: "results" is not a list`)

// unwrapPage recognizes the DRF pagination envelope {count, next, previous,
// results}. Objects carrying "results" yield the list and its Meta; any
// other JSON value passes through unchanged. A "results" member that is not
// an array is rejected rather than passed through.
func unwrapPage(body []byte) (json.RawMessage, *Meta, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode response object: %w", err)
	}
	results, ok := envelope["results"]
	if !ok {
		return trimmed, nil, nil
	}
	results = bytes.TrimSpace(results)
	if len(results) == 0 || results[0] != '[' {
		return nil, nil, errNotAList
	}

	meta := &Meta{}
	for key, dst := range map[string]any{"count": &meta.Count, "next": &meta.Next, "previous": &meta.Previous} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, nil, fmt.Errorf("paginated response: bad %q: %w", key, err)
		}
	}
	return results, meta, nil
}

// errorMessage extracts the most specific message from an error body:
// message, detail, error, non_field_errors, then field errors as
// "field: msg" sorted by field name.
func errorMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("API Error: %d", status)

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fallback
	}
	if trimmed[0] == '[' {
		if msg := messageText(trimmed); msg != "" {
			return msg
		}
		return fallback
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fallback
	}
	for _, key := range []string{"message", "detail", "error", "non_field_errors"} {
		if msg := messageText(fields[key]); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		if msg := messageText(fields[k]); msg != "" {
			parts = append(parts, k+": "+msg)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return fallback
}

// messageText reads a string or a list of strings; other shapes yield "".
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, " "))
	}
	return ""
}
