package ledgermodels

import (
	"bytes"
	"encoding/json"
	"errors"
)

// decodeView fills v from the JSON object in data and returns a private copy
// of data. Type mismatches on individual fields are tolerated; json.Unmarshal
// skips such a field and still decodes the rest.
func decodeView(data []byte, v any) (json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return nil, err
	}
	return append(json.RawMessage(nil), data...), nil
}
