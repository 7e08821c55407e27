package treedoc

import (
	"encoding/base64"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ParseFile reads the file as YAML and validates it against the schema. The
// filename becomes the document's source identifier.
func (s *Schema) ParseFile(filename string, opts ...ParseOpt) (any, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, parseErrf(CodeBadInput, filename, "", "%s", err)
	}
	defer f.Close()
	return s.ParseReader(f, filename, opts...)
}

// ParseReader reads r as YAML and validates it against the schema.
func (s *Schema) ParseReader(r io.Reader, filename string, opts ...ParseOpt) (any, error) {
	raw, err := decodeYAML(r)
	if err != nil {
		return nil, parseErrf(CodeBadInput, filename, "", "%s", err)
	}
	return s.Parse(raw, filename, opts...)
}

// ParseBytes parses data as YAML and validates it against the schema.
func (s *Schema) ParseBytes(data []byte, filename string, opts ...ParseOpt) (any, error) {
	return s.ParseReader(strings.NewReader(string(data)), filename, opts...)
}

// DecodeYAML converts one YAML document into a raw value with mapping order
// preserved: mappings become *Map, sequences []any, !!omap and !!pairs
// become []KV, scalars resolve per their tag (null, bool, int, float, str,
// binary, timestamp). Date-only timestamps become Date, full timestamps
// time.Time. An empty input decodes to nil.
func DecodeYAML(data []byte) (any, error) {
	return decodeYAML(strings.NewReader(string(data)))
}

func decodeYAML(r io.Reader) (any, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return yamlValue(&node)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.ScalarNode:
		return yamlScalar(n)
	case yaml.SequenceNode:
		if n.Tag == "!!omap" || n.Tag == "!!pairs" {
			return yamlPairs(n)
		}
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn, vn := n.Content[i], n.Content[i+1]
			if kn.Tag == "!!merge" {
				if err := yamlMerge(m, vn); err != nil {
					return nil, err
				}
				continue
			}
			k, err := yamlValue(kn)
			if err != nil {
				return nil, err
			}
			v, err := yamlValue(vn)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	default:
		return nil, errors.New("yaml: unsupported node kind")
	}
}

// yamlPairs converts !!omap / !!pairs content (a sequence of single-entry
// mappings) into ordered key/value pairs.
func yamlPairs(n *yaml.Node) ([]KV, error) {
	out := make([]KV, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind != yaml.MappingNode || len(c.Content) != 2 {
			return nil, errors.New("yaml: malformed ordered mapping entry")
		}
		k, err := yamlValue(c.Content[0])
		if err != nil {
			return nil, err
		}
		v, err := yamlValue(c.Content[1])
		if err != nil {
			return nil, err
		}
		out = append(out, KV{Key: k, Value: v})
	}
	return out, nil
}

// yamlMerge folds a "<<" merge value (a mapping or a sequence of mappings)
// into m without overriding keys already present.
func yamlMerge(m *Map, vn *yaml.Node) error {
	merged, err := yamlValue(vn)
	if err != nil {
		return err
	}
	var sources []any
	if items, ok := merged.([]any); ok {
		sources = items
	} else {
		sources = []any{merged}
	}
	for _, src := range sources {
		sm, ok := src.(*Map)
		if !ok {
			return errors.New("yaml: merge value is not a mapping")
		}
		for _, p := range sm.Pairs() {
			if !m.Has(p.Key) {
				m.Set(p.Key, p.Value)
			}
		}
	}
	return nil
}

var yamlTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02t15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func yamlScalar(n *yaml.Node) (any, error) {
	v := n.Value
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		switch strings.ToLower(v) {
		case "true", "yes", "on", "y":
			return true, nil
		case "false", "no", "off", "n":
			return false, nil
		}
		return nil, errors.New("yaml: cannot decode " + strconv.Quote(v) + " as bool")
	case "!!int":
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, nil
		}
		if i, err := strconv.ParseInt(v, 0, 64); err == nil {
			return i, nil
		}
		return nil, errors.New("yaml: cannot decode " + strconv.Quote(v) + " as int")
	case "!!float":
		switch strings.ToLower(v) {
		case ".inf", "+.inf":
			return math.Inf(1), nil
		case "-.inf":
			return math.Inf(-1), nil
		case ".nan":
			return math.NaN(), nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
		return nil, errors.New("yaml: cannot decode " + strconv.Quote(v) + " as float")
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Map(dropSpace, v))
		if err != nil {
			return nil, errors.New("yaml: cannot decode !!binary value: " + err.Error())
		}
		return b, nil
	case "!!timestamp":
		if len(v) == len("2006-01-02") {
			t, err := time.Parse("2006-01-02", v)
			if err == nil {
				return DateOf(t), nil
			}
		}
		for _, layout := range yamlTimestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, errors.New("yaml: cannot decode " + strconv.Quote(v) + " as timestamp")
	default:
		return v, nil
	}
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\n', '\r':
		return -1
	}
	return r
}
