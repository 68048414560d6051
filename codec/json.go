package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// JSON is the default codec. Keys are emitted in sorted order.
type JSON struct{}

// Name implements [Codec].
func (JSON) Name() string { return NameJSON }

// Encode implements [Codec].
func (JSON) Encode(state map[string]string) ([]byte, error) {
	if err := checkText(state); err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]string{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return data, nil
}

// Decode implements [Codec]. Only a single JSON object whose values are all
// strings is accepted.
func (JSON) Decode(data []byte) (map[string]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, deserializeErr(NameJSON, errors.New("empty blob"))
	}
	// encoding/json replaces invalid UTF-8 with U+FFFD instead of failing.
	if !utf8.Valid(data) {
		return nil, deserializeErr(NameJSON, errors.New("blob is not valid UTF-8"))
	}
	var state map[string]string
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, deserializeErr(NameJSON, err)
	}
	if state == nil {
		return nil, deserializeErr(NameJSON, errors.New("null state"))
	}
	return state, nil
}
