package qa

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// The generator's output is not guaranteed to be well-formed JSON: it may be
// fenced, double-encoded, Python-literal flavored, or wrapped in prose.
// decodePairs runs an ordered chain of parse strategies; the first one that
// yields a list of objects wins, and exhausting the chain yields nothing.

var (
	controlChars  = regexp.MustCompile(`[\x00-\x1F]+`)
	bracketedBody = regexp.MustCompile(`(?s)\[.*\]`)
)

type parseStrategy func(string) ([]map[string]any, bool)

var parseChain = []parseStrategy{
	decodeJSON,
	decodeLooseLiteral,
	decodeBracketed,
}

func decodePairs(raw string) ([]map[string]any, bool) {
	cleaned := stripFences(strings.TrimSpace(raw))
	cleaned = controlChars.ReplaceAllString(cleaned, " ")

	for _, strategy := range parseChain {
		if pairs, ok := strategy(cleaned); ok {
			return pairs, true
		}
	}
	return nil, false
}

func stripFences(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// decodeJSON accepts a JSON array of objects, including the double-encoded
// case where the payload is a JSON string that itself holds the array.
func decodeJSON(s string) ([]map[string]any, bool) {
	var value any
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}

	if inner, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(inner), &value); err != nil {
			return nil, false
		}
	}

	return asObjectList(value)
}

// decodeLooseLiteral tolerates Python-literal syntax: single-quoted strings
// and True/False/None constants.
func decodeLooseLiteral(s string) ([]map[string]any, bool) {
	return decodeJSON(normalizeLiteral(s))
}

// decodeBracketed extracts the first top-level bracketed array substring and
// parses that, for responses where the array is wrapped in prose.
func decodeBracketed(s string) ([]map[string]any, bool) {
	body := bracketedBody.FindString(s)
	if body == "" {
		return nil, false
	}
	return decodeJSON(body)
}

func asObjectList(value any) ([]map[string]any, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}

	pairs := make([]map[string]any, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, obj)
	}
	return pairs, true
}

// normalizeLiteral rewrites Python-literal syntax into JSON: single-quote
// string delimiters become double quotes (escaping as needed) and bare
// True/False/None become their JSON forms. String contents are preserved.
func normalizeLiteral(s string) string {
	var b strings.Builder
	runes := []rune(s)
	inString := false
	var quote rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inString {
			switch {
			case r == '\\' && i+1 < len(runes):
				next := runes[i+1]
				if next == '\'' {
					b.WriteRune('\'')
				} else {
					b.WriteRune(r)
					b.WriteRune(next)
				}
				i++
			case r == quote:
				inString = false
				b.WriteRune('"')
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '\'' || r == '"':
			inString = true
			quote = r
			b.WriteRune('"')
		case unicode.IsLetter(r):
			j := i
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			switch word := string(runes[i:j]); word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
