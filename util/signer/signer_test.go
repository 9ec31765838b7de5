package signer

import (
	"bytes"
	"testing"
)

func TestSignUnsignRoundtrip(t *testing.T) {
	s := New("server secret", "test-salt")
	payload := []byte(`{"user_id":"42"}`)

	token := s.Sign(payload)
	got, ok := s.Unsign(token)
	if !ok {
		t.Fatal("valid token rejected")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: got %q, want %q", got, payload)
	}
}

func TestUnsignRejectsTampering(t *testing.T) {
	s := New("server secret", "test-salt")
	token := s.Sign([]byte("payload"))

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		tampered := []byte(token)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		if _, ok := s.Unsign(string(tampered)); ok {
			t.Fatalf("tampered token accepted (byte %d)", i)
		}
	}
}

func TestUnsignRejectsGarbage(t *testing.T) {
	s := New("server secret", "test-salt")
	for _, token := range []string{"", ".", "abc", "a.b.c", "!!!.???"} {
		if _, ok := s.Unsign(token); ok {
			t.Errorf("garbage token %q accepted", token)
		}
	}
}

func TestSaltNamespacesAreDisjoint(t *testing.T) {
	sessions := New("shared secret", "session-salt")
	files := New("shared secret", "file-salt")

	token := sessions.Sign([]byte("session payload"))
	if _, ok := files.Unsign(token); ok {
		t.Error("token crossed salt namespaces")
	}
}

func TestEncodeDecodeMap(t *testing.T) {
	s := New("secret", "salt")
	values := map[string]string{"user_id": "7", "csrf_token": "abc123"}

	token := s.EncodeMap(values)
	got := s.DecodeMap(token)
	if got == nil {
		t.Fatal("valid map token rejected")
	}
	if got["user_id"] != "7" || got["csrf_token"] != "abc123" {
		t.Errorf("decoded map mismatch: %v", got)
	}

	if s.DecodeMap("not a token") != nil {
		t.Error("garbage map token accepted")
	}
}

func TestEncodeDecodeID(t *testing.T) {
	s := New("secret", "salt")

	token := s.EncodeID(12345)
	id, ok := s.DecodeID(token)
	if !ok || id != 12345 {
		t.Errorf("DecodeID = %d, %v; want 12345, true", id, ok)
	}

	if _, ok := s.DecodeID("garbage"); ok {
		t.Error("garbage id token accepted")
	}

	other := New("other secret", "salt")
	if _, ok := other.DecodeID(token); ok {
		t.Error("token accepted under a different secret")
	}
}
