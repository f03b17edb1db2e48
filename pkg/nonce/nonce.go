package nonce

import (
	"math/rand/v2"
	"time"

	"github.com/vaultkv/server/pkg/keyenc"
	"github.com/vaultkv/server/pkg/log"
	"github.com/vaultkv/server/pkg/metrics"
	"github.com/vaultkv/server/pkg/storage"
	"github.com/vaultkv/server/pkg/types"
)

// DefaultPurgeSampleDenominator is the default 1-in-N chance that a
// successful accept also triggers a full purge scan for that public key.
const DefaultPurgeSampleDenominator = 256

// Ledger implements the Nonce Ledger against a byte-store environment.
type Ledger struct {
	env              *storage.Env
	replayWindow     time.Duration
	sampleDenominator uint32
}

// New constructs a Ledger. replayWindow is the age past which a nonce is
// eligible for purging; sampleDenominator is the 1-in-N chance of
// triggering a purge scan after a successful accept (0 disables
// sampling entirely, relying solely on explicit ClearOldNonces calls).
func New(env *storage.Env, replayWindow time.Duration, sampleDenominator uint32) *Ledger {
	return &Ledger{env: env, replayWindow: replayWindow, sampleDenominator: sampleDenominator}
}

// CheckAndAdd implements check_and_add_nonce: inside one transaction, it
// rejects a token already present for publicKey, otherwise inserts it and
// commits. On storage error it aborts and returns false with the error.
func (l *Ledger) CheckAndAdd(n types.Nonce, publicKey []byte) (bool, error) {
	key := keyenc.NoncesKey(publicKey)

	tx, err := l.env.BeginTxn(true)
	if err != nil {
		return false, err
	}

	exists, err := storage.HasDup(tx, key, n.Token)
	if err != nil {
		tx.Rollback()
		metrics.NonceChecksTotal.WithLabelValues("storage_failure").Inc()
		return false, err
	}
	if exists {
		tx.Rollback()
		metrics.NonceChecksTotal.WithLabelValues("replayed").Inc()
		return false, nil
	}

	if err := storage.PutDup(tx, key, n.Token); err != nil {
		tx.Rollback()
		metrics.NonceChecksTotal.WithLabelValues("storage_failure").Inc()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		metrics.NonceChecksTotal.WithLabelValues("storage_failure").Inc()
		return false, err
	}
	metrics.NonceChecksTotal.WithLabelValues("accepted").Inc()

	if l.sampleDenominator > 0 && rand.Uint32N(l.sampleDenominator) == 0 {
		if _, err := l.ClearOldNonces(publicKey, time.Now()); err != nil {
			log.WithComponent("nonce").Warn().Err(err).Msg("sampled purge failed")
		}
	}
	return true, nil
}

// ClearOldNonces implements purge_expired_nonces for one public key: it
// removes every nonce whose embedded timestamp is older than
// replayWindow before now, returning the number removed.
func (l *Ledger) ClearOldNonces(publicKey []byte, now time.Time) (int, error) {
	key := keyenc.NoncesKey(publicKey)
	cutoff := now.Add(-l.replayWindow)

	tx, err := l.env.BeginTxn(true)
	if err != nil {
		return 0, err
	}

	var expired [][]byte
	err = storage.IterateDup(tx, key, func(token []byte) error {
		n, err := types.NewNonce(token)
		if err != nil {
			// malformed tokens are not this ledger's to repair; skip them
			return nil
		}
		if n.Timestamp().Before(cutoff) {
			expired = append(expired, token)
		}
		return nil
	})
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	removed := 0
	for _, token := range expired {
		ok, err := storage.DeleteDup(tx, key, token)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		if ok {
			removed++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if removed > 0 {
		metrics.NoncePurgedTotal.Add(float64(removed))
	}
	return removed, nil
}
