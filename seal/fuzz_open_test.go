package seal

import "testing"

// FuzzOpen feeds arbitrary strings to the token parser. Goal: no panics, and
// nothing but a correctly signed token yields a key.
func FuzzOpen(f *testing.F) {
	s, err := New(Config{PrivateKey: testSecret})
	if err != nil {
		f.Fatalf("new sealer: %v", err)
	}
	if token, err := s.Seal("seed-key"); err == nil {
		f.Add(token)
		f.Add(token[:len(token)/2])
	}
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.eyJzaWQiOiJ4In0.")

	f.Fuzz(func(t *testing.T, token string) {
		key, err := s.Open(token)
		if err == nil && key == "" {
			t.Fatal("open succeeded without a key")
		}
	})
}
