// Package json decodes JSON input into raw values suitable for schema
// binding, preserving object member order.
package json

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/treedoc/treedoc"
)

// Decode reads one JSON value from r as a raw value: objects become ordered
// *treedoc.Map, arrays []any, numbers int64 when integral and float64
// otherwise. Trailing input after the value is an error.
func Decode(r io.Reader) (any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("json: trailing data after top-level value")
	}
	return v, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(data []byte) (any, error) {
	return Decode(bytes.NewReader(data))
}

func decodeValue(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("json: unexpected end of input")
		}
		return nil, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *gojson.Decoder, tok gojson.Token) (any, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("json: unexpected %q", t.String())
		}
	case gojson.Number:
		return numberValue(t)
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("json: unexpected token %v", tok)
	}
}

func decodeObject(dec *gojson.Decoder) (*treedoc.Map, error) {
	m := treedoc.NewMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("json: object key %v is not a string", keyTok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *gojson.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, err
	}
	return out, nil
}

// numberValue keeps integral numbers as int64 and everything else as
// float64.
func numberValue(n gojson.Number) (any, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return f, nil
}
