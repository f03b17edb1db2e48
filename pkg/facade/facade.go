package facade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"weak"

	"github.com/vaultkv/server/pkg/auth"
	"github.com/vaultkv/server/pkg/health"
	"github.com/vaultkv/server/pkg/keyenc"
	"github.com/vaultkv/server/pkg/log"
	"github.com/vaultkv/server/pkg/metrics"
	"github.com/vaultkv/server/pkg/nonce"
	"github.com/vaultkv/server/pkg/records"
	"github.com/vaultkv/server/pkg/registry"
	"github.com/vaultkv/server/pkg/storage"
	"github.com/vaultkv/server/pkg/types"
)

// ErrUserNotFound is the UserNotFound taxonomy entry: a sentinel that
// GetUser and GetPublicKey wrap so callers can use errors.Is instead of
// string-matching. DeleteUser reports an unregistered user as
// (false, nil) instead.
var ErrUserNotFound = errors.New("facade: user not found")

// Config configures a Facade. Zero-value fields fall back to the defaults
// documented on each field.
type Config struct {
	// DataDirectory must already exist; construction fails otherwise.
	DataDirectory string
	// NonceTTL is the age past which a nonce is eligible for purging.
	// Default: 2 * RequestFreshnessWindow.
	NonceTTL time.Duration
	// RequestFreshnessWindow is the request freshness window. The facade
	// uses it only to derive the NonceTTL default; it does not check the
	// age of requests or nonces itself. Default: 5 minutes.
	RequestFreshnessWindow time.Duration
	// PurgeSampleRate is the 1-in-N chance of a purge sweep per accepted
	// nonce. Default: 256. Zero selects the default, so sampling cannot be
	// turned off through Config.
	PurgeSampleRate uint32
	// Clock supplies the current time for registration timestamps.
	// Default: auth.SystemClock{}.
	Clock auth.Clock
}

func (c Config) withDefaults() Config {
	if c.RequestFreshnessWindow <= 0 {
		c.RequestFreshnessWindow = 5 * time.Minute
	}
	if c.NonceTTL <= 0 {
		c.NonceTTL = 2 * c.RequestFreshnessWindow
	}
	if c.PurgeSampleRate == 0 {
		c.PurgeSampleRate = nonce.DefaultPurgeSampleDenominator
	}
	if c.Clock == nil {
		c.Clock = auth.SystemClock{}
	}
	return c
}

// Facade is the composed Database Facade: the User Registry, Record
// Store, and Nonce Ledger behind one contract, bound to one storage
// environment.
type Facade struct {
	env      *storage.Env
	registry *registry.Registry
	records  *records.Store
	nonces   *nonce.Ledger
	clock    auth.Clock
}

var (
	instancesMu sync.Mutex
	instances   = map[string]weak.Pointer[Facade]{}
)

// GetOrOpen returns the single Facade instance for cfg.DataDirectory,
// opening one if none exists or the existing one failed to sync.
func GetOrOpen(cfg Config) (*Facade, error) {
	cfg = cfg.withDefaults()

	absDir, err := filepath.Abs(cfg.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("facade: resolve data directory: %w", err)
	}

	instancesMu.Lock()
	defer instancesMu.Unlock()

	if ptr, ok := instances[absDir]; ok {
		if f := ptr.Value(); f != nil {
			if err := f.env.Sync(); err == nil {
				return f, nil
			}
			f.env.Close()
		}
		delete(instances, absDir)
	}

	f, err := open(absDir, cfg)
	if err != nil {
		return nil, err
	}
	instances[absDir] = weak.Make(f)
	return f, nil
}

func open(absDir string, cfg Config) (*Facade, error) {
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("facade: data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("facade: %s is not a directory", absDir)
	}

	env, err := storage.Open(absDir)
	if err != nil {
		return nil, err
	}

	return &Facade{
		env:      env,
		registry: registry.New(env),
		records:  records.New(env),
		nonces:   nonce.New(env, cfg.NonceTTL, cfg.PurgeSampleRate),
		clock:    cfg.Clock,
	}, nil
}

func (f *Facade) timed(op string) func() {
	timer := metrics.NewTimer()
	return func() { timer.ObserveDurationVec(metrics.FacadeOpDuration, op) }
}

// AddUser registers a new user, deriving the registration timestamp from
// the facade's clock.
func (f *Facade) AddUser(ctx context.Context, publicKey, publicHash []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer f.timed("add_user")()

	user, err := types.NewUser(publicKey, publicHash, f.clock.Now())
	if err != nil {
		return false, err
	}
	return f.registry.AddUser(user)
}

// HaveUser reports whether a public hash is registered.
func (f *Facade) HaveUser(ctx context.Context, publicHash []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer f.timed("have_user")()
	return f.registry.HaveUser(publicHash)
}

// GetUser fetches a registered user, wrapping ErrUserNotFound when absent.
func (f *Facade) GetUser(ctx context.Context, publicHash []byte) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}
	defer f.timed("get_user")()

	user, err := f.registry.GetUser(publicHash)
	if err != nil {
		if errors.Is(err, types.ErrInvalidUser) {
			return types.User{}, fmt.Errorf("%w: %v", ErrUserNotFound, err)
		}
		return types.User{}, err
	}
	return user, nil
}

// GetPublicKey fetches a registered user's public key, wrapping
// ErrUserNotFound when absent.
func (f *Facade) GetPublicKey(ctx context.Context, publicHash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer f.timed("get_public_key")()

	key, ok, err := f.registry.GetPublicKey(publicHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return key, nil
}

// DeleteUser removes user and cascades into every record they own.
func (f *Facade) DeleteUser(ctx context.Context, user types.User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer f.timed("delete_user")()
	return f.registry.DeleteUser(user.PublicHash)
}

// PutRecord writes a new (revision, value) pair under user's index.
func (f *Facade) PutRecord(ctx context.Context, user types.User, index, revision, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer f.timed("put_record")()
	return f.records.Put(user, index, revision, value)
}

// GetRecord returns every (revision, value) pair under user's index.
func (f *Facade) GetRecord(ctx context.Context, user types.User, index []byte) ([]types.RevisionValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer f.timed("get_record")()
	return f.records.GetRecord(user, index)
}

// GetRevision fetches a single (revision, value) pair.
func (f *Facade) GetRevision(ctx context.Context, user types.User, index, revision []byte) (*types.RevisionValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer f.timed("get_revision")()
	return f.records.GetRevision(user, index, revision)
}

// GetIndices returns every index user has put a revision under and not
// since deleted.
func (f *Facade) GetIndices(ctx context.Context, user types.User) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer f.timed("get_indices")()
	return f.records.GetIndices(user)
}

// GetRevisions returns every revision byte string under user's index.
func (f *Facade) GetRevisions(ctx context.Context, user types.User, index []byte) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer f.timed("get_revisions")()
	return f.records.GetRevisions(user, index)
}

// DeleteRecord removes an index and every revision/value beneath it.
func (f *Facade) DeleteRecord(ctx context.Context, user types.User, index []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer f.timed("delete_record")()
	return f.records.DeleteRecord(user, index)
}

// CheckAndAddNonce admits nonce for publicKey, rejecting replays.
func (f *Facade) CheckAndAddNonce(ctx context.Context, token, publicKey []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer f.timed("check_and_add_nonce")()

	n, err := types.NewNonce(token)
	if err != nil {
		return false, err
	}
	return f.nonces.CheckAndAdd(n, publicKey)
}

// ClearOldNonces purges expired nonces for every registered user,
// returning the total number removed. It is the explicit counterpart to
// the on-access sampling purge CheckAndAddNonce triggers opportunistically.
func (f *Facade) ClearOldNonces(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer f.timed("clear_old_nonces")()

	tx, err := f.env.BeginTxn(false)
	if err != nil {
		return 0, err
	}
	var publicKeys [][]byte
	err = storage.IterateDup(tx, keyenc.UsersKey(), func(publicHash []byte) error {
		key, ok, err := storage.Get(tx, keyenc.PublicKeyKey(publicHash))
		if err != nil {
			return err
		}
		if ok {
			publicKeys = append(publicKeys, key)
		}
		return nil
	})
	tx.Rollback()
	if err != nil {
		return 0, err
	}

	total := 0
	now := f.clock.Now()
	for _, publicKey := range publicKeys {
		n, err := f.nonces.ClearOldNonces(publicKey, now)
		if err != nil {
			return total, err
		}
		total += n
	}
	log.WithComponent("facade").Info().Int("removed", total).Msg("cleared old nonces")
	return total, nil
}

// Close releases the facade's storage environment. Safe to call once.
func (f *Facade) Close() error {
	return f.env.Close()
}

// CheckHealth probes the facade's own storage environment and records the
// outcome in r under the "storage" component. Callers run this at
// startup and on a schedule, not per request — it issues a Sync.
func (f *Facade) CheckHealth(r *health.Registry) {
	r.CheckStorage(f.env)
}
