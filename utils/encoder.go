package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EncodeJSONBody encodes body without HTML escaping, so "<" and "&" in merge
// fields and URLs reach the API unchanged. Output ends with a newline.
func EncodeJSONBody(body any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return &buf, nil
}

// DecodeJSONBody decodes at most limit bytes of r into v. limit <= 0 means no limit.
func DecodeJSONBody(r io.Reader, v any, limit int64) error {
	if limit > 0 {
		r = io.LimitReader(r, limit)
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
