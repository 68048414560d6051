package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses Core Deterministic Encoding (RFC 8949 section 4.2):
// sorted map keys, shortest lengths, no indefinite-length items.
var cborEncMode cbor.EncMode

// cborDecMode rejects duplicate map keys and invalid UTF-8 text.
var cborDecMode cbor.DecMode

func init() {
	var err error

	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	cborDecMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		UTF8:      cbor.UTF8RejectInvalid,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR encodes states as a deterministic CBOR map of text strings.
type CBOR struct{}

// Name implements [Codec].
func (CBOR) Name() string { return NameCBOR }

// Encode implements [Codec].
func (CBOR) Encode(state map[string]string) ([]byte, error) {
	if err := checkText(state); err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]string{}
	}
	data, err := cborEncMode.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return data, nil
}

// Decode implements [Codec].
func (CBOR) Decode(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, deserializeErr(NameCBOR, errors.New("empty blob"))
	}
	var state map[string]string
	if err := cborDecMode.Unmarshal(data, &state); err != nil {
		return nil, deserializeErr(NameCBOR, err)
	}
	if state == nil {
		return nil, deserializeErr(NameCBOR, errors.New("null state"))
	}
	return checkDecoded(NameCBOR, state)
}
