package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxRecordSize bounds uploaded SGF bodies.
const MaxRecordSize = 8 << 20

func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	body, err := ReadRequestBody(r)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ReadRequestBody reads at most MaxRecordSize bytes; a longer body is an error.
func ReadRequestBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRecordSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxRecordSize {
		return nil, fmt.Errorf("request body is larger than %d bytes", MaxRecordSize)
	}
	return body, nil
}
