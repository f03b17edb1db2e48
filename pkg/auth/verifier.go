package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
)

// ErrInvalidSignature is returned when a request's signature does not
// verify against its claimed public key.
var ErrInvalidSignature = errors.New("auth: invalid signature")

// SignatureVerifier authenticates a request before it reaches the
// registry or record store. The facade's non-goal is request transport
// and signing; this is the contract a production wire-auth stack
// implements, with ECDSASignatureVerifier below standing in as the
// reference.
type SignatureVerifier interface {
	Verify(publicKey, message, signature []byte) error
}

// ECDSASignatureVerifier verifies ECDSA-over-P256 signatures against an
// ASN.1 DER-encoded public key, the DSA variant idiomatic to Go.
type ECDSASignatureVerifier struct{}

// Verify parses publicKey as a DER-encoded ECDSA public key and checks
// signature (ASN.1 DER, as produced by crypto/ecdsa.SignASN1) against the
// SHA-256 digest of message.
func (ECDSASignatureVerifier) Verify(publicKey, message, signature []byte) error {
	pub, err := x509.ParsePKIXPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("auth: parse public key: %w", err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("auth: public key is not ECDSA: %w", ErrInvalidSignature)
	}
	digest := sha256.Sum256(message)
	if !ecdsa.VerifyASN1(ecPub, digest[:], signature) {
		return ErrInvalidSignature
	}
	return nil
}

// GenerateReferenceKey creates a fresh P-256 key pair for tests and the
// cmd/vaultctl demo harness, returning the DER-encoded public key
// alongside the private key used to sign requests.
func GenerateReferenceKey() (*ecdsa.PrivateKey, []byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: generate key: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: marshal public key: %w", err)
	}
	return priv, der, nil
}

// Sign produces an ASN.1 DER-encoded ECDSA signature over the SHA-256
// digest of message, matching what ECDSASignatureVerifier.Verify expects.
func Sign(priv *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("auth: sign: %w", err)
	}
	return sig, nil
}
