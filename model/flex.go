package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexInt decodes integers the backend sometimes sends as JSON strings.
// Unparseable values decode as zero instead of failing the whole document.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if text == "" || text == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(text); err == nil {
		*f = flexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		*f = flexInt(int(v))
		return nil
	}
	*f = 0
	return nil
}

// flexString decodes identifiers that may arrive as numbers or strings.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(trimmed))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstNonZero(values ...flexInt) int {
	for _, v := range values {
		if v != 0 {
			return int(v)
		}
	}
	return 0
}

// unwrapList returns the array held directly in data or under one of keys.
func unwrapList(data []byte, keys ...string) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false
	}
	if trimmed[0] == '[' {
		return trimmed, true
	}
	if trimmed[0] != '{' {
		return nil, false
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, false
	}
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			return raw, true
		}
	}
	return nil, false
}
