package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"milexcli/internal/files"
)

// jsonIndent matches the indentation consumers of the artifacts expect
const jsonIndent = "    "

// field is one key of an orderedObject
type field struct {
	Key   string
	Value any
}

// orderedObject is a JSON object whose keys are emitted in slice order
type orderedObject []field

// MarshalJSON writes the fields in order without escaping HTML characters.
func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalRaw(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeJSON writes v as indented UTF-8 JSON. Non-ASCII text is kept as is.
func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	return enc.Encode(v)
}

// writeJSON atomically replaces path with the JSON encoding of v
func writeJSON(path string, v any) error {
	return files.WriteAtomic(path, func(w io.Writer) error {
		return encodeJSON(w, v)
	})
}
