package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

const fence = "```"

var errTrailingData = errors.New("unexpected data after top-level value")

// ParseError is returned when no structured value can be recovered from a
// generation response.
type ParseError struct {
	Raw     string
	Cleaned string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no structured value found in response: %v", e.Err)
	}
	return "no structured value found in response"
}

func (e *ParseError) Unwrap() error { return e.Err }

// Normalize recovers structured data from free LLM text. A single recovered
// value is returned as is; several concatenated values are returned as an
// ordered []any. Numbers decode as json.Number.
func Normalize(raw string) (any, error) {
	values, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

func normalize(raw string) ([]any, error) {
	text := stripWrapper(raw)
	if text == "" {
		return nil, &ParseError{Raw: raw, Err: errors.New("empty response")}
	}
	text = clipToSpan(text)

	if v, err := decode(text); err == nil {
		return []any{v}, nil
	}

	fixed := quoteBareKeys(text)
	v, err := decode(fixed)
	if err == nil {
		return []any{v}, nil
	}

	var values []any
	for _, chunk := range splitChunks(fixed) {
		cv, cerr := decode(chunk)
		if cerr != nil {
			continue
		}
		values = append(values, cv)
	}
	if len(values) == 0 {
		return nil, &ParseError{Raw: raw, Cleaned: fixed, Err: err}
	}
	return values, nil
}

// stripWrapper removes a BOM, surrounding whitespace and markdown fences.
func stripWrapper(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	s = strings.TrimPrefix(s, fence)
	// language tag, e.g. ```json
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// clipToSpan drops prose before the first opening bracket and after the last
// closing one.
func clipToSpan(s string) string {
	first := strings.IndexAny(s, "{[")
	last := strings.LastIndexAny(s, "}]")
	if first >= 0 && first < last {
		return s[first : last+1]
	}
	return s
}

// quoteBareKeys rewrites `{key: 1}` into `{"key": 1}`. Text inside string
// literals is copied untouched.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString, escaped := false, false
	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			i++
			continue
		}

		b.WriteByte(c)
		i++
		switch c {
		case '"':
			inString = true
			continue
		case '{', '[', ',':
		default:
			continue
		}

		j := skipSpace(s, i)
		k := scanIdent(s, j)
		if k == j {
			continue
		}
		colon := skipSpace(s, k)
		if colon >= len(s) || s[colon] != ':' {
			continue
		}
		b.WriteString(s[i:j])
		b.WriteByte('"')
		b.WriteString(s[j:k])
		b.WriteByte('"')
		i = k
	}
	return b.String()
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func scanIdent(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	return i
}

// splitChunks returns every top-level bracketed span of s. String state is
// only tracked inside a span so quotes in surrounding prose are ignored.
func splitChunks(s string) []string {
	var chunks []string
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
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
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				chunks = append(chunks, s[start:i+1])
				start = -1
			}
		}
	}
	return chunks
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return nil, err
	}
	return v, nil
}
