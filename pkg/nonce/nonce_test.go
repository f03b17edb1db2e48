package nonce

import (
	"testing"
	"time"

	"github.com/vaultkv/server/pkg/storage"
	"github.com/vaultkv/server/pkg/types"
)

func openTestEnv(t *testing.T) *storage.Env {
	t.Helper()
	env, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env
}

func tokenAt(t *testing.T, at time.Time, suffix byte) types.Nonce {
	t.Helper()
	n, err := types.NewNonce(types.NewNonceToken(at, []byte{suffix, suffix, suffix, suffix, suffix, suffix, suffix, suffix}))
	if err != nil {
		t.Fatalf("NewNonce() error = %v", err)
	}
	return n
}

func TestCheckAndAddAcceptsFreshToken(t *testing.T) {
	l := New(openTestEnv(t), time.Minute, 0)
	pub := []byte{0x01}

	ok, err := l.CheckAndAdd(tokenAt(t, time.Now(), 0x01), pub)
	if err != nil || !ok {
		t.Fatalf("CheckAndAdd() = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestCheckAndAddRejectsReplay(t *testing.T) {
	l := New(openTestEnv(t), time.Minute, 0)
	pub := []byte{0x02}
	token := tokenAt(t, time.Now(), 0x02)

	if ok, err := l.CheckAndAdd(token, pub); err != nil || !ok {
		t.Fatalf("first CheckAndAdd() = (%v, %v)", ok, err)
	}
	ok, err := l.CheckAndAdd(token, pub)
	if err != nil {
		t.Fatalf("replayed CheckAndAdd() error = %v", err)
	}
	if ok {
		t.Error("replayed CheckAndAdd() = true, want false")
	}
}

func TestCheckAndAddScopedPerPublicKey(t *testing.T) {
	l := New(openTestEnv(t), time.Minute, 0)
	token := tokenAt(t, time.Now(), 0x03)

	if ok, err := l.CheckAndAdd(token, []byte{0x01}); err != nil || !ok {
		t.Fatalf("CheckAndAdd() for first key = (%v, %v)", ok, err)
	}
	// The identical token is a fresh nonce for a different public key.
	ok, err := l.CheckAndAdd(token, []byte{0x02})
	if err != nil || !ok {
		t.Fatalf("CheckAndAdd() for second key = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestClearOldNoncesRemovesOnlyExpired(t *testing.T) {
	l := New(openTestEnv(t), time.Minute, 0)
	pub := []byte{0x04}

	old := tokenAt(t, time.Now().Add(-time.Hour), 0x10)
	fresh := tokenAt(t, time.Now(), 0x20)

	if _, err := l.CheckAndAdd(old, pub); err != nil {
		t.Fatal(err)
	}
	if _, err := l.CheckAndAdd(fresh, pub); err != nil {
		t.Fatal(err)
	}

	removed, err := l.ClearOldNonces(pub, time.Now())
	if err != nil {
		t.Fatalf("ClearOldNonces() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("ClearOldNonces() removed = %d, want 1", removed)
	}

	// The old token, now purged, is accepted again as if never seen.
	ok, err := l.CheckAndAdd(old, pub)
	if err != nil || !ok {
		t.Fatalf("CheckAndAdd() after purge = (%v, %v), want (true, nil)", ok, err)
	}

	// The fresh token is still on the ledger and still rejected as a replay.
	ok, err = l.CheckAndAdd(fresh, pub)
	if err != nil {
		t.Fatalf("CheckAndAdd() for still-fresh token error = %v", err)
	}
	if ok {
		t.Error("CheckAndAdd() for still-fresh token = true, want false")
	}
}

func TestCheckAndAddSamplesPurgeWhenDenominatorIsOne(t *testing.T) {
	l := New(openTestEnv(t), time.Minute, 1)
	pub := []byte{0x05}
	old := tokenAt(t, time.Now().Add(-time.Hour), 0x30)

	if ok, err := l.CheckAndAdd(old, pub); err != nil || !ok {
		t.Fatalf("CheckAndAdd() = (%v, %v)", ok, err)
	}

	fresh := tokenAt(t, time.Now(), 0x40)
	if ok, err := l.CheckAndAdd(fresh, pub); err != nil || !ok {
		t.Fatalf("CheckAndAdd() for fresh token = (%v, %v)", ok, err)
	}

	// With sampleDenominator 1, every accept also purges, so the stale
	// token from before the fresh accept should already be gone.
	ok, err := l.CheckAndAdd(old, pub)
	if err != nil || !ok {
		t.Fatalf("CheckAndAdd() for previously-old token after sampled purge = (%v, %v), want (true, nil)", ok, err)
	}
}
