package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/mitchellh/mapstructure"
)

// Document is the loosely typed form of a configuration: option maps keyed by
// fragment kind. It is what YAML and JSON documents decode into.
type Document map[string]map[string]any

// FromDocument decodes a document into a Configuration. Unknown fragment
// kinds, unknown options and invalid distinguisher values are rejected.
func FromDocument(doc Document) (*Configuration, error) {
	b := NewBuilder()
	for _, name := range slices.Sorted(maps.Keys(doc)) {
		f, err := DecodeFragment(FragmentKind(name), doc[name])
		if err != nil {
			return nil, err
		}
		b.Put(f)
	}
	return b.Build(), nil
}

// DecodeFragment decodes the options of a single fragment.
func DecodeFragment(kind FragmentKind, options map[string]any) (Fragment, error) {
	switch kind {
	case KindCore:
		// Validated up front so callers can match ErrUnknownDistinguisher.
		// Only the textual form is accepted; numbers would bypass the enum.
		if raw, ok := options[OptionExecDistinguisher]; ok {
			s, isString := raw.(string)
			if !isString {
				return nil, &FragmentError{Kind: kind, Err: &ModeError{Value: fmt.Sprint(raw)}}
			}
			if _, err := ParseDistinguisherMode(s); err != nil {
				return nil, &FragmentError{Kind: kind, Err: err}
			}
		}
		var f CoreFragment
		if err := decodeOptions(options, &f); err != nil {
			return nil, &FragmentError{Kind: kind, Err: err}
		}
		return f, nil
	case KindPlatform:
		var f PlatformFragment
		if err := decodeOptions(options, &f); err != nil {
			return nil, &FragmentError{Kind: kind, Err: err}
		}
		return f, nil
	default:
		return nil, &FragmentError{Kind: kind, Err: ErrUnknownFragment}
	}
}

// ToDocument renders the configuration in its loosely typed form.
func (c *Configuration) ToDocument() Document {
	doc := make(Document, len(c.fragments))
	for kind, f := range c.fragments {
		options := make(map[string]any)
		for _, field := range f.Fields() {
			options[field.Name] = documentValue(field.Value)
		}
		doc[string(kind)] = options
	}
	return doc
}

// MarshalJSON encodes the configuration as a Document.
func (c *Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToDocument())
}

// UnmarshalJSON decodes a Document. It must only be used on a fresh value.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	decoded, err := FromDocument(doc)
	if err != nil {
		return err
	}
	c.fragments = decoded.fragments
	c.hash = decoded.hash
	return nil
}

func decodeOptions(input map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.TextUnmarshallerHookFunc(),
		ErrorUnused: true,
		Result:      target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func documentValue(v any) any {
	switch t := v.(type) {
	case DistinguisherMode:
		return t.String()
	case []Label:
		out := make([]string, len(t))
		for i, l := range t {
			out[i] = l.Canonical()
		}
		return out
	case []string:
		if t == nil {
			return []string{}
		}
		return t
	default:
		return v
	}
}
