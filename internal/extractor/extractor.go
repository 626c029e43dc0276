// Package extractor implements the pluggable response-value extractors
// (spec §4.4): jsonpath, regex, header, and cookie, each exposing
// extract(path, envelope, index) -> (value, found).
package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/alexisbeaulieu97/streamy/internal/config"
)

// Func extracts a value from envelope (internal/model.ResponseEnvelope.ToMap
// shape) at path, returning the index-th match. A false second return
// means "not found" — the caller does not treat this as fatal, only logs a
// warning and leaves the named variable unbound (spec §4.4).
type Func func(path string, envelope map[string]any, index int) (any, bool)

var registry = map[string]Func{
	"jsonpath": extractJSONPath,
	"regex":    extractRegex,
	"header":   extractHeader,
	"cookie":   extractCookie,
}

// Get returns the extractor implementation for typ, or false if typ is not
// one of the closed set validated at parse time (config.Extractor.Type).
func Get(typ string) (Func, bool) {
	fn, ok := registry[typ]
	return fn, ok
}

// Run applies extractor e against envelope and returns the extracted value.
func Run(e config.Extractor, envelope map[string]any) (any, bool) {
	fn, ok := Get(e.Type)
	if !ok {
		return nil, false
	}
	return fn(e.Path, envelope, e.Index)
}

func extractJSONPath(path string, envelope map[string]any, index int) (any, bool) {
	body, ok := envelope["body"]
	if !ok {
		return nil, false
	}

	target := strings.TrimPrefix(path, "$.")
	if path == "$" {
		return body, true
	}

	encoded, err := marshalGJSON(body)
	if err != nil {
		return nil, false
	}

	result := gjson.Get(encoded, target)
	if !result.Exists() {
		return nil, false
	}

	if result.IsArray() {
		items := result.Array()
		if index < 0 || index >= len(items) {
			return nil, false
		}
		return items[index].Value(), true
	}

	return result.Value(), true
}

func extractRegex(path string, envelope map[string]any, index int) (any, bool) {
	text, ok := bodyAsText(envelope)
	if !ok {
		return nil, false
	}

	re, err := regexp.Compile(path)
	if err != nil {
		return nil, false
	}

	matches := re.FindStringSubmatch(text)
	if matches == nil {
		return nil, false
	}
	if index < 0 || index >= len(matches) {
		return nil, false
	}
	return matches[index], true
}

func extractHeader(path string, envelope map[string]any, _ int) (any, bool) {
	headers, ok := envelope["headers"].(map[string]string)
	if !ok {
		return nil, false
	}
	for name, value := range headers {
		if strings.EqualFold(name, path) {
			return value, true
		}
	}
	return nil, false
}

func extractCookie(path string, envelope map[string]any, _ int) (any, bool) {
	cookies, ok := envelope["cookies"].(map[string]string)
	if !ok {
		return nil, false
	}
	value, ok := cookies[path]
	return value, ok
}

func bodyAsText(envelope map[string]any) (string, bool) {
	body, ok := envelope["body"]
	if !ok {
		return "", false
	}
	if s, ok := body.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", body), true
}

func marshalGJSON(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
