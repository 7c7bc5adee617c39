package checksum

import "testing"

func TestSum_KnownVector(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != want {
		t.Errorf("Sum(nil) = %q, want %q", got, want)
	}
}

func TestMatches(t *testing.T) {
	data := []byte("hello")
	if !Matches(data, Sum(data)) {
		t.Error("expected match")
	}
	if Matches(data, "") {
		t.Error("empty sum must not match")
	}
	if Matches([]byte("other"), Sum(data)) {
		t.Error("different content must not match")
	}
}
