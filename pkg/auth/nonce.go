package auth

import (
	"crypto/rand"
	"fmt"

	"github.com/vaultkv/server/pkg/types"
)

// nonceSuffixLen is the width of the random suffix minted by NewNonce,
// twice the 8-byte minimum suffix types.NewNonce accepts.
const nonceSuffixLen = 16

// NewNonce mints a fresh nonce token for clock's current time, with a
// crypto/rand-sourced random suffix — the reference request-signing
// helper's answer to "how does a client derive a nonce", standing in for
// the out-of-scope wire-protocol's own derivation.
func NewNonce(clock Clock) (types.Nonce, error) {
	suffix := make([]byte, nonceSuffixLen)
	if _, err := rand.Read(suffix); err != nil {
		return types.Nonce{}, fmt.Errorf("auth: generate nonce suffix: %w", err)
	}
	token := types.NewNonceToken(clock.Now(), suffix)
	return types.NewNonce(token)
}
