package codec

import (
	"reflect"
	"testing"
)

// FuzzDecode feeds arbitrary blobs to every codec. Decoders must not panic,
// and anything they accept must re-encode and round trip.
func FuzzDecode(f *testing.F) {
	seed := map[string]string{"user_id": "u-1", "role_id": "2"}
	for _, name := range Names() {
		c, _ := ForName(name)
		if blob, err := c.Encode(seed); err == nil {
			f.Add(name, blob)
			if len(blob) > 4 {
				f.Add(name, blob[:len(blob)/2])
			}
		}
		f.Add(name, []byte{})
		f.Add(name, []byte{0xff, 0x00, 0x01})
		f.Add(name, invalidUTF8Blob(name))
	}

	f.Fuzz(func(t *testing.T, name string, data []byte) {
		c, err := ForName(name)
		if err != nil {
			return
		}
		state, err := c.Decode(data)
		if err != nil {
			return
		}
		blob, err := c.Encode(state)
		if err != nil {
			t.Fatalf("%s: decoded state %q does not re-encode: %v", name, state, err)
		}
		again, err := c.Decode(blob)
		if err != nil {
			t.Fatalf("%s: re-decode failed: %v", name, err)
		}
		if !reflect.DeepEqual(state, again) {
			t.Fatalf("%s: unstable round trip %v != %v", name, state, again)
		}
	})
}
