package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/wallyup/pkg/errors"
)

// Sentinel opens every entry of a package file. Package files hold one
// JSON object per published version, written back to back.
const Sentinel = `{"package"`

// keyReplacer strips characters that cannot appear in a flat field name.
var keyReplacer = strings.NewReplacer(".", "", "-", "", " ", "")

// ParseEntries parses the contents of one package file. name identifies the
// file in errors. Entries are returned in the order they appear in data,
// which is publication order, not version order.
func ParseEntries(name string, data []byte) ([]Record, error) {
	fragments := bytes.Split(data, []byte(Sentinel))

	var records []Record
	for i, frag := range fragments {
		if i == 0 {
			// Text before the first sentinel is not an entry.
			if len(bytes.TrimSpace(frag)) == 0 {
				continue
			}
			return nil, errors.New(errors.ErrCodeMalformedRegistryEntry,
				"%s: unexpected data before first entry", name)
		}
		if len(frag) == 0 {
			continue
		}

		doc := make([]byte, 0, len(Sentinel)+len(frag))
		doc = append(doc, Sentinel...)
		doc = append(doc, frag...)

		fields, err := flatten(doc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedRegistryEntry, err,
				"%s: entry %d", name, len(records)+1)
		}
		rec := Record{Fields: fields}
		rec.populate()
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeKey strips periods, dashes and spaces from an object key.
func NormalizeKey(key string) string {
	return keyReplacer.Replace(key)
}

// flatten decodes a single JSON object and returns its leaves in document
// order. Objects are descended into; scalars and arrays are leaves.
func flatten(doc []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("entry is not an object")
	}

	var fields []Field
	if err := walkObject(dec, "", &fields); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("trailing data after entry")
		}
		return nil, err
	}
	return fields, nil
}

// walkObject consumes the members of an object whose opening brace has
// already been read, up to and including the closing brace.
func walkObject(dec *json.Decoder, prefix string, out *[]Field) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := walkValue(dec, joinPath(prefix, NormalizeKey(key)), out); err != nil {
			return err
		}
	}
	_, err := dec.Token()
	return err
}

func walkValue(dec *json.Decoder, path string, out *[]Field) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return walkObject(dec, path, out)
		case '[':
			list := []any{}
			for dec.More() {
				var v any
				if err := dec.Decode(&v); err != nil {
					return err
				}
				list = append(list, stripQuotes(v))
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			*out = append(*out, Field{Path: path, Value: list})
			return nil
		}
		return fmt.Errorf("unexpected delimiter %v", t)
	default:
		*out = append(*out, Field{Path: path, Value: stripQuotes(t)})
		return nil
	}
}

// stripQuotes removes embedded double quotes from string values.
func stripQuotes(v any) any {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, `"`, "")
	case []any:
		for i := range t {
			t[i] = stripQuotes(t[i])
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = stripQuotes(e)
		}
		return t
	}
	return v
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
