// Package jsonx extracts and repairs JSON documents embedded in LLM replies.
//
// Model output rarely arrives as a clean JSON document: it is wrapped in
// Markdown code fences, prefixed with prose, or carries minor syntax damage
// (trailing commas, single quotes, unquoted keys). Every structured-output
// consumer in the pipeline goes through the same three-stage path:
// fence strip, first-document isolation, lenient repair.
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrNoDocument indicates no JSON object or array was found in the input.
	ErrNoDocument = errors.New("jsonx: no JSON document found")
	// ErrUnbalanced indicates a JSON document started but never closed.
	ErrUnbalanced = errors.New("jsonx: unbalanced JSON document")
)

// StripFences removes Markdown code fences around a payload. It handles
// ```json, ```markdown and bare ``` fences, fenced blocks preceded or
// followed by prose, and inputs without any fences (returned unchanged).
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}

	rest := trimmed[start+3:]
	// Drop the info string (e.g. "json") up to the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		info := strings.TrimSpace(rest[:nl])
		if len(info) <= 16 && !strings.ContainsAny(info, "{}[]") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	out := strings.TrimSpace(rest)
	if out == "" {
		return trimmed
	}
	return out
}

// FirstDocument isolates the first complete top-level JSON object or array
// using a brace/bracket scanner that is string- and escape-aware.
func FirstDocument(s string) (string, error) {
	start := -1
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ErrNoDocument
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
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
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrUnbalanced
}

// Repair applies a lenient pass over near-JSON: trailing commas removed,
// single-quoted strings converted, unquoted object keys quoted, Python-style
// literals mapped to JSON ones. The result is not guaranteed valid; callers
// must still unmarshal and validate.
func Repair(s string) string {
	var out bytes.Buffer
	inString := false
	quote := byte(0)
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
				out.WriteByte(c)
			case c == '\\':
				escaped = true
				out.WriteByte(c)
			case c == quote:
				inString = false
				out.WriteByte('"')
			case c == '"' && quote == '\'':
				out.WriteString(`\"`)
			default:
				out.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			inString = true
			quote = c
			out.WriteByte('"')
		case c == ',':
			// Drop trailing commas before a closing brace/bracket.
			if next := nextNonSpace(s, i+1); next == '}' || next == ']' {
				continue
			}
			out.WriteByte(c)
		case matchWord(s, i, "True"):
			out.WriteString("true")
			i += 3
		case matchWord(s, i, "False"):
			out.WriteString("false")
			i += 4
		case matchWord(s, i, "None") || matchWord(s, i, "NaN"):
			out.WriteString("null")
			if s[i] == 'N' && s[i+1] == 'a' {
				i += 2
			} else {
				i += 3
			}
		case isKeyStart(s, i):
			// Quote a bare object key up to the following colon.
			j := i
			for j < len(s) && (isWordByte(s[j])) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(s[i:j])
			out.WriteByte('"')
			i = j - 1
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// Extract runs the full pipeline: fence strip, first-document isolation,
// direct unmarshal, then a repair pass on failure. It returns the raw JSON
// text that successfully unmarshalled into v.
func Extract(s string, v any) (string, error) {
	doc, err := FirstDocument(StripFences(s))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal([]byte(doc), v); err == nil {
		return doc, nil
	}
	repaired := Repair(doc)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return "", err
	}
	return repaired, nil
}

// ExtractRaw is Extract without a target type; it returns the isolated,
// valid JSON document as a raw message.
func ExtractRaw(s string) (json.RawMessage, error) {
	var v any
	doc, err := Extract(s, &v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if !unicode.IsSpace(rune(s[i])) {
			return s[i]
		}
	}
	return 0
}

func matchWord(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	if i > 0 && isWordByte(s[i-1]) {
		return false
	}
	end := i + len(word)
	return end >= len(s) || !isWordByte(s[end])
}

func isWordByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// isKeyStart reports whether position i begins a bare object key, i.e. a
// word that runs up to a colon and follows '{' or ','.
func isKeyStart(s string, i int) bool {
	c := s[i]
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_') {
		return false
	}
	// Look back for the structural context.
	j := i - 1
	for j >= 0 && unicode.IsSpace(rune(s[j])) {
		j--
	}
	if j < 0 || (s[j] != '{' && s[j] != ',') {
		return false
	}
	// Look forward for the colon.
	k := i
	for k < len(s) && isWordByte(s[k]) {
		k++
	}
	for k < len(s) && unicode.IsSpace(rune(s[k])) {
		k++
	}
	return k < len(s) && s[k] == ':'
}
