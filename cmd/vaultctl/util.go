package main

import "crypto/sha256"

// sha256Sum derives a public-key hash the way a client deriving an index
// from a semantic key would — the wire protocol's own derivation is out
// of scope, so this is a stand-in good enough for the demo harness.
func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}
