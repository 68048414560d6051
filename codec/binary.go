package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	binaryFormatVersionCurrent = 1

	// maxBinaryField bounds a single name or value so a corrupt length prefix
	// cannot force a huge allocation.
	maxBinaryField = 1 << 20
)

// Binary is a compact length-prefixed layout:
//
//	version(1) | count(uvarint) | { len(uvarint) name | len(uvarint) value }*
//
// Entries are written in sorted name order.
type Binary struct{}

// Name implements [Codec].
func (Binary) Name() string { return NameBinary }

// Encode implements [Codec].
func (Binary) Encode(state map[string]string) ([]byte, error) {
	if err := checkText(state); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte

	buf.WriteByte(binaryFormatVersionCurrent)
	n := binary.PutUvarint(scratch[:], uint64(len(state)))
	buf.Write(scratch[:n])

	for _, k := range sortedKeys(state) {
		v := state[k]
		if len(k) > maxBinaryField || len(v) > maxBinaryField {
			return nil, fmt.Errorf("%w: claim %q too large", ErrSerialize, k)
		}
		n = binary.PutUvarint(scratch[:], uint64(len(k)))
		buf.Write(scratch[:n])
		buf.WriteString(k)
		n = binary.PutUvarint(scratch[:], uint64(len(v)))
		buf.Write(scratch[:n])
		buf.WriteString(v)
	}

	return buf.Bytes(), nil
}

// Decode implements [Codec].
func (Binary) Decode(data []byte) (map[string]string, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, deserializeErr(NameBinary, errors.New("empty blob"))
	}
	if version != binaryFormatVersionCurrent {
		return nil, deserializeErr(NameBinary, fmt.Errorf("unsupported version %d", version))
	}

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, deserializeErr(NameBinary, err)
	}
	// Each entry needs at least two length bytes.
	if count > uint64(r.Len())/2 {
		return nil, deserializeErr(NameBinary, errors.New("entry count exceeds blob size"))
	}

	state := make(map[string]string, count)
	for i := uint64(0); i < count; i++ {
		k, err := readBinaryField(r)
		if err != nil {
			return nil, deserializeErr(NameBinary, err)
		}
		v, err := readBinaryField(r)
		if err != nil {
			return nil, deserializeErr(NameBinary, err)
		}
		if _, dup := state[k]; dup {
			return nil, deserializeErr(NameBinary, fmt.Errorf("duplicate claim %q", k))
		}
		state[k] = v
	}

	if r.Len() != 0 {
		return nil, deserializeErr(NameBinary, errors.New("trailing bytes"))
	}
	return checkDecoded(NameBinary, state)
}

func readBinaryField(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > maxBinaryField || n > uint64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
