package types

import (
	"bytes"
	"testing"
	"time"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name       string
		publicKey  []byte
		publicHash []byte
		wantErr    bool
	}{
		{name: "valid", publicKey: []byte{0x01, 0x02}, publicHash: []byte{0xAA, 0xBB}, wantErr: false},
		{name: "empty hash", publicKey: []byte{0x01}, publicHash: nil, wantErr: true},
		{name: "empty key", publicKey: nil, publicHash: []byte{0xAA}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.publicKey, tt.publicHash, time.Now())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewUser() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserRegistrationTimeRoundTrip(t *testing.T) {
	now := time.Now()
	u, err := NewUser([]byte{0x01}, []byte{0xAA}, now)
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}

	encoded := u.EncodeRegistrationTime()
	if len(encoded) != 8 {
		t.Fatalf("EncodeRegistrationTime() length = %d, want 8", len(encoded))
	}

	decoded, err := DecodeRegistrationTime(encoded)
	if err != nil {
		t.Fatalf("DecodeRegistrationTime() error = %v", err)
	}
	if !decoded.Equal(u.RegistrationTime) {
		t.Errorf("decoded time = %v, want %v", decoded, u.RegistrationTime)
	}
}

func TestDecodeRegistrationTimeBadLength(t *testing.T) {
	if _, err := DecodeRegistrationTime([]byte{0x01, 0x02}); err == nil {
		t.Error("DecodeRegistrationTime() with short input: expected error, got nil")
	}
}

func TestNewRevisionValue(t *testing.T) {
	tests := []struct {
		name     string
		revision []byte
		value    []byte
		wantErr  bool
	}{
		{name: "valid", revision: []byte{0x20}, value: []byte{0x30}, wantErr: false},
		{name: "empty value allowed", revision: []byte{0x20}, value: nil, wantErr: false},
		{name: "empty revision rejected", revision: nil, value: []byte{0x30}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRevisionValue(tt.revision, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRevisionValue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNonceTimestampRoundTrip(t *testing.T) {
	at := time.Now().Truncate(time.Microsecond)
	token := NewNonceToken(at, []byte("random-suffix-bytes"))

	n, err := NewNonce(token)
	if err != nil {
		t.Fatalf("NewNonce() error = %v", err)
	}

	got := n.Timestamp()
	if !got.Equal(at.UTC()) {
		t.Errorf("Timestamp() = %v, want %v", got, at.UTC())
	}
}

func TestNewNonceRejectsShortToken(t *testing.T) {
	if _, err := NewNonce([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Error("NewNonce() with short token: expected error, got nil")
	}
}

func TestNonceTokenLayout(t *testing.T) {
	at := time.UnixMicro(1234567890)
	token := NewNonceToken(at, []byte{0xDE, 0xAD})
	if !bytes.HasSuffix(token, []byte{0xDE, 0xAD}) {
		t.Errorf("token suffix mismatch: %x", token)
	}
}
