/*
Package auth defines the two collaborator contracts the facade consumes
but does not itself implement — Clock, for nonce expiry, and
SignatureVerifier, for authenticating a request before it reaches the
registry or record store — plus reference implementations of both so the
facade is usable standalone and in tests without a production wire-auth
stack attached.

SystemClock backs Clock with time.Now. ECDSASignatureVerifier backs
SignatureVerifier with ECDSA over P-256 (crypto/ecdsa), the DSA variant
idiomatic to Go and the one the standard library ships without an extra
dependency. NewNonce mints a fresh nonce token from the current time and
a crypto/rand-sourced random suffix.
*/
package auth
