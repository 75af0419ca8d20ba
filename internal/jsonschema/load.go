package jsonschema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension. Unknown extensions
// are read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads a JSON-shaped value. JSON numbers stay json.Number; YAML
// input is converted to the same shapes encoding/json would produce.
func Decode(data []byte, format Format) (any, error) {
	switch format {
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return fromYAML(v)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return v, nil
	}
}

// LoadFile reads and decodes a JSON or YAML file.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// LoadDocument reads and parses a schema document.
func LoadDocument(path string) (*Document, error) {
	v, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseValue(v)
}

// ParseValue parses an already decoded schema document.
func ParseValue(v any) (*Document, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: "#", Msg: fmt.Sprintf("expected a schema object, got %s", jsonKind(v))}
	}
	return Parse(m)
}

func fromYAML(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			c, err := fromYAML(val)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			c, err := fromYAML(val)
			if err != nil {
				return nil, err
			}
			out[ks] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			c, err := fromYAML(val)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case int:
		return json.Number(strconv.Itoa(x)), nil
	case int64:
		return json.Number(strconv.FormatInt(x, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(x, 10)), nil
	case float64:
		return json.Number(strconv.FormatFloat(x, 'g', -1, 64)), nil
	}
	return v, nil
}
