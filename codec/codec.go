package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrSerialize is returned when a state cannot be represented by a codec.
	ErrSerialize = errors.New("session state serialize failed")
	// ErrDeserialize is returned when a blob is not a valid encoded state.
	ErrDeserialize = errors.New("session state deserialize failed")
	// ErrUnknownCodec is returned by [ForName] for unregistered names.
	ErrUnknownCodec = errors.New("unknown session codec")
)

// Codec encodes claim maps into persisted blobs and back.
//
// Implementations must be deterministic and must satisfy
// Decode(Encode(s)) == s for every s that Encode accepts.
type Codec interface {
	Name() string
	Encode(state map[string]string) ([]byte, error)
	Decode(data []byte) (map[string]string, error)
}

// Names of the built-in codecs, as accepted by [ForName].
const (
	NameJSON    = "json"
	NameBinary  = "binary"
	NameCBOR    = "cbor"
	NameMsgPack = "msgpack"
)

// Default returns the codec used when none is configured.
func Default() Codec {
	return JSON{}
}

// ForName resolves a codec by its configuration name. The empty string
// selects [Default].
func ForName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON{}, nil
	case NameBinary:
		return Binary{}, nil
	case NameCBOR:
		return CBOR{}, nil
	case NameMsgPack:
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Names lists the built-in codec names in a stable order.
func Names() []string {
	return []string{NameJSON, NameBinary, NameCBOR, NameMsgPack}
}

// checkText rejects claims that text formats cannot carry losslessly.
func checkText(state map[string]string) error {
	if err := invalidText(state); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return nil
}

// checkDecoded applies the same rule to a decoded state, so a blob that
// Encode could never have produced is reported as corrupt.
func checkDecoded(format string, state map[string]string) (map[string]string, error) {
	if err := invalidText(state); err != nil {
		return nil, deserializeErr(format, err)
	}
	return state, nil
}

func invalidText(state map[string]string) error {
	for k, v := range state {
		if !utf8.ValidString(k) {
			return errors.New("claim name is not valid UTF-8")
		}
		if !utf8.ValidString(v) {
			return fmt.Errorf("claim %q is not valid UTF-8", k)
		}
	}
	return nil
}

func sortedKeys(state map[string]string) []string {
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func deserializeErr(format string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDeserialize, format, err)
}
