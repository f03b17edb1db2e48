package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidUser is returned when a User cannot be constructed from the
// given fields.
var ErrInvalidUser = errors.New("types: invalid user")

// ErrInvalidRevision is returned when a RevisionValue cannot be constructed.
var ErrInvalidRevision = errors.New("types: invalid revision")

// ErrInvalidNonce is returned when a Nonce token is too short to contain
// its embedded timestamp.
var ErrInvalidNonce = errors.New("types: invalid nonce")

// nonceTimestampLen is the width, in bytes, of the big-endian microsecond
// timestamp embedded at the front of every nonce token.
const nonceTimestampLen = 8

// nonceMinLen is the smallest a well-formed nonce token can be: an 8-byte
// timestamp plus a non-trivial random suffix.
const nonceMinLen = nonceTimestampLen + 8

// User is the server's record of a registered public-key holder. PublicHash
// is the collision-resistant digest that identifies the user; PublicKey is
// the raw key bytes used by the external SignatureVerifier to authenticate
// requests. RegistrationTime is truncated to millisecond precision, as it
// is stored on disk as an 8-byte big-endian unix-ms value.
type User struct {
	PublicHash       []byte
	PublicKey        []byte
	RegistrationTime time.Time
}

// NewUser validates and constructs a User. It rejects an empty hash or key
// since neither can be written to or read back from the byte store.
func NewUser(publicKey, publicHash []byte, registrationTime time.Time) (User, error) {
	if len(publicHash) == 0 {
		return User{}, fmt.Errorf("%w: empty public hash", ErrInvalidUser)
	}
	if len(publicKey) == 0 {
		return User{}, fmt.Errorf("%w: empty public key", ErrInvalidUser)
	}
	return User{
		PublicHash:       publicHash,
		PublicKey:        publicKey,
		RegistrationTime: registrationTime.Truncate(time.Millisecond),
	}, nil
}

// EncodeRegistrationTime renders RegistrationTime as the 8-byte big-endian
// unix-millisecond value stored at the reg-date key.
func (u User) EncodeRegistrationTime() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(u.RegistrationTime.UnixMilli()))
	return buf
}

// DecodeRegistrationTime parses the 8-byte big-endian unix-ms value read
// from the reg-date key.
func DecodeRegistrationTime(raw []byte) (time.Time, error) {
	if len(raw) != 8 {
		return time.Time{}, errors.New("types: registration time must be 8 bytes")
	}
	ms := binary.BigEndian.Uint64(raw)
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// RevisionValue is one immutable (revision, value) pair stored under a
// user's index. Revisions are opaque, client-chosen bytes; the server never
// generates or interprets them beyond ordering and equality.
type RevisionValue struct {
	Revision []byte
	Value    []byte
}

// NewRevisionValue validates and constructs a RevisionValue. An empty
// revision cannot key a row, so it is rejected; an empty value is legal
// (the client's ciphertext may legitimately be zero bytes for an empty
// plaintext).
func NewRevisionValue(revision, value []byte) (RevisionValue, error) {
	if len(revision) == 0 {
		return RevisionValue{}, ErrInvalidRevision
	}
	return RevisionValue{Revision: revision, Value: value}, nil
}

// Nonce is a single-use anti-replay token: an 8-byte big-endian
// microsecond timestamp followed by a random suffix. The server treats the
// suffix as opaque and only ever inspects the timestamp, to decide whether
// a token has aged out of the replay window.
type Nonce struct {
	Token []byte
}

// NewNonce validates and wraps a raw nonce token.
func NewNonce(token []byte) (Nonce, error) {
	if len(token) < nonceMinLen {
		return Nonce{}, ErrInvalidNonce
	}
	return Nonce{Token: token}, nil
}

// Timestamp extracts the embedded monotonic microsecond timestamp from the
// nonce token.
func (n Nonce) Timestamp() time.Time {
	micros := int64(binary.BigEndian.Uint64(n.Token[:nonceTimestampLen]))
	return time.UnixMicro(micros).UTC()
}

// NewNonceToken builds a fresh nonce token embedding the given timestamp,
// followed by the supplied random suffix. It is primarily used by tests and
// by the reference request-signing helper in pkg/auth; production clients
// derive nonces however the wire protocol specifies.
func NewNonceToken(at time.Time, randomSuffix []byte) []byte {
	buf := make([]byte, nonceTimestampLen+len(randomSuffix))
	binary.BigEndian.PutUint64(buf, uint64(at.UnixMicro()))
	copy(buf[nonceTimestampLen:], randomSuffix)
	return buf
}
