package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ExtractJSONObject returns the first well-formed JSON object embedded in
// free text. Models sometimes wrap their output in prose or code fences;
// this recovers the payload without asking for a retry.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errors.New("no JSON object found")
	}

	depth := 0
	inString := false
	escaped := false
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return "", errors.New("malformed JSON object")
				}
				return candidate, nil
			}
		}
	}
	return "", errors.New("unterminated JSON object")
}
