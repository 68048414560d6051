package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack encodes states as a MessagePack map with sorted keys.
type MsgPack struct{}

// Name implements [Codec].
func (MsgPack) Name() string { return NameMsgPack }

// Encode implements [Codec].
func (MsgPack) Encode(state map[string]string) ([]byte, error) {
	if err := checkText(state); err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]string{}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return buf.Bytes(), nil
}

// Decode implements [Codec].
func (MsgPack) Decode(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, deserializeErr(NameMsgPack, errors.New("empty blob"))
	}

	r := bytes.NewReader(data)
	var state map[string]string
	if err := msgpack.NewDecoder(r).Decode(&state); err != nil {
		return nil, deserializeErr(NameMsgPack, err)
	}
	if state == nil {
		return nil, deserializeErr(NameMsgPack, errors.New("null state"))
	}
	if r.Len() != 0 {
		return nil, deserializeErr(NameMsgPack, errors.New("trailing bytes"))
	}
	return checkDecoded(NameMsgPack, state)
}
