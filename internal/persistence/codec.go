package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

func init() {
	// Item batches and option bags travel through the codec as interface
	// values; register the containers they commonly use.
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// EncodeValue serializes arbitrary Go values using encoding/gob.
// Callers must ensure that values are gob-encodable and that concrete item
// types have been registered with gob.Register where needed. nil encodes
// to nil.
func EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	// Encode through an interface so decoding into an interface works.
	iv := v
	if err := enc.Encode(&iv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeValue deserializes gob data produced by EncodeValue into T.
// Empty input yields the zero value.
func DecodeValue[T any](data []byte) (T, error) {
	var zero T
	if len(data) == 0 {
		return zero, nil
	}

	var iv any
	dec := gob.NewDecoder(bytes.NewBuffer(data))
	if err := dec.Decode(&iv); err != nil {
		return zero, err
	}
	if iv == nil {
		return zero, nil
	}
	v, ok := iv.(T)
	if !ok {
		return zero, fmt.Errorf("gob: decoded %T, not assignable to target type", iv)
	}
	return v, nil
}
