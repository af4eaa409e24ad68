package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrMalformedResponse is returned when a strict JSON-mode response does not
// decode into the expected shape.
var ErrMalformedResponse = errors.New("malformed model response")

// ParseJSONPayload pulls JSON out of model text that may be wrapped in prose.
//
// The first match wins:
//  1. the first balanced [...] region whose first element is an object,
//     decoded as a list of objects;
//  2. otherwise the first balanced {...} region, returned as a single element;
//  3. otherwise nothing.
//
// It never fails. Decode errors are logged and produce an empty slice, so an
// empty result means "nothing usable found". Brackets inside string literals
// are skipped while matching. An object that itself holds a list of objects
// is matched by rule 1 on the inner list.
func ParseJSONPayload(text string, logger *zap.Logger) []map[string]any {
	if logger == nil {
		logger = zap.NewNop()
	}

	if region, ok := findRegion(text, '[', true); ok {
		var items []map[string]any
		if err := json.Unmarshal([]byte(region), &items); err != nil {
			logger.Warn("decoding JSON array from model output", zap.Error(err))
			return []map[string]any{}
		}
		return items
	}

	if region, ok := findRegion(text, '{', false); ok {
		var item map[string]any
		if err := json.Unmarshal([]byte(region), &item); err != nil {
			logger.Warn("decoding JSON object from model output", zap.Error(err))
			return []map[string]any{}
		}
		return []map[string]any{item}
	}

	logger.Debug("no JSON found in model output", zap.Int("length", len(text)))
	return []map[string]any{}
}

// findRegion returns the first balanced region opened by open. With
// objectFirst set, the region must start with an object ("[ {").
func findRegion(text string, open byte, objectFirst bool) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != open {
			continue
		}
		if objectFirst && !startsWithObject(text[i+1:]) {
			continue
		}
		if end := matchClose(text, i); end >= 0 {
			return text[i : end+1], true
		}
	}
	return "", false
}

func startsWithObject(s string) bool {
	s = strings.TrimLeft(s, " \t\r\n")
	return strings.HasPrefix(s, "{")
}

// matchClose returns the index of the bracket closing the one at start, or -1
// if the region is unbalanced.
func matchClose(text string, start int) int {
	var stack []byte
	inString, escaped := false, false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// decodeStrict decodes a JSON-mode response. Unlike ParseJSONPayload it does
// not search for JSON and it fails loudly.
func decodeStrict[T any](text string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}
