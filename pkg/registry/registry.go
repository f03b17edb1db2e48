package registry

import (
	"encoding/hex"
	"fmt"

	"github.com/vaultkv/server/pkg/keyenc"
	"github.com/vaultkv/server/pkg/log"
	"github.com/vaultkv/server/pkg/metrics"
	"github.com/vaultkv/server/pkg/records"
	"github.com/vaultkv/server/pkg/storage"
	"github.com/vaultkv/server/pkg/types"
)

// Registry implements the User Registry against a byte-store environment.
type Registry struct {
	env *storage.Env
}

// New constructs a Registry bound to env.
func New(env *storage.Env) *Registry {
	return &Registry{env: env}
}

// hashPrefix renders the first 8 bytes of a public hash as hex, for log
// fields that must never carry the full hash.
func hashPrefix(h []byte) string {
	n := len(h)
	if n > 8 {
		n = 8
	}
	return hex.EncodeToString(h[:n])
}

// AddUser registers a new user, writing the users roster entry,
// registration-date row, and public-key row in one transaction. It
// returns false without error if the public hash is already registered —
// registration is not an upsert.
func (r *Registry) AddUser(user types.User) (bool, error) {
	rlog := log.WithComponent("registry")
	tx, err := r.env.BeginTxn(true)
	if err != nil {
		return false, err
	}

	usersKey := keyenc.UsersKey()
	already, err := storage.HasDup(tx, usersKey, user.PublicHash)
	if err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("add_user", "storage_failure").Inc()
		return false, err
	}
	if already {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("add_user", "duplicate").Inc()
		return false, nil
	}

	if err := storage.PutDup(tx, usersKey, user.PublicHash); err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("add_user", "storage_failure").Inc()
		return false, err
	}
	if err := storage.Put(tx, keyenc.RegDateKey(user.PublicHash), user.EncodeRegistrationTime()); err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("add_user", "storage_failure").Inc()
		return false, err
	}
	if err := storage.Put(tx, keyenc.PublicKeyKey(user.PublicHash), user.PublicKey); err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("add_user", "storage_failure").Inc()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		metrics.RegistryOps.WithLabelValues("add_user", "storage_failure").Inc()
		return false, err
	}
	metrics.RegistryOps.WithLabelValues("add_user", "success").Inc()
	metrics.UsersTotal.Inc()
	rlog.Info().Str("user_hash_prefix", hashPrefix(user.PublicHash)).Msg("user registered")
	return true, nil
}

// HaveUser reports whether a public hash is registered.
func (r *Registry) HaveUser(publicHash []byte) (bool, error) {
	tx, err := r.env.BeginTxn(false)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	return storage.HasDup(tx, keyenc.UsersKey(), publicHash)
}

// GetUser fetches a registered user's full record. It returns
// types.ErrInvalidUser wrapped via fmt.Errorf if the hash is not
// registered — callers distinguish "not found" with errors.Is.
func (r *Registry) GetUser(publicHash []byte) (types.User, error) {
	tx, err := r.env.BeginTxn(false)
	if err != nil {
		return types.User{}, err
	}
	defer tx.Rollback()

	have, err := storage.HasDup(tx, keyenc.UsersKey(), publicHash)
	if err != nil {
		return types.User{}, err
	}
	if !have {
		return types.User{}, fmt.Errorf("registry: user not found: %w", types.ErrInvalidUser)
	}

	publicKey, ok, err := storage.Get(tx, keyenc.PublicKeyKey(publicHash))
	if err != nil {
		return types.User{}, err
	}
	if !ok {
		return types.User{}, fmt.Errorf("registry: public key row missing: %w", types.ErrInvalidUser)
	}

	rawDate, ok, err := storage.Get(tx, keyenc.RegDateKey(publicHash))
	if err != nil {
		return types.User{}, err
	}
	if !ok {
		return types.User{}, fmt.Errorf("registry: registration date row missing: %w", types.ErrInvalidUser)
	}
	regTime, err := types.DecodeRegistrationTime(rawDate)
	if err != nil {
		return types.User{}, err
	}

	return types.NewUser(publicKey, publicHash, regTime)
}

// GetPublicKey fetches only a user's public key, without the roster or
// registration-date lookups GetUser performs.
func (r *Registry) GetPublicKey(publicHash []byte) ([]byte, bool, error) {
	tx, err := r.env.BeginTxn(false)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()
	return storage.Get(tx, keyenc.PublicKeyKey(publicHash))
}

// DeleteUser removes a user's roster entry, registration-date row, and
// public-key row, cascading into every record the user owns in the same
// transaction. It returns false without error if the user was never
// registered.
func (r *Registry) DeleteUser(publicHash []byte) (bool, error) {
	rlog := log.WithComponent("registry")
	tx, err := r.env.BeginTxn(true)
	if err != nil {
		return false, err
	}

	removed, err := storage.DeleteDup(tx, keyenc.UsersKey(), publicHash)
	if err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("delete_user", "storage_failure").Inc()
		return false, err
	}
	if !removed {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("delete_user", "not_found").Inc()
		return false, nil
	}

	if err := storage.Delete(tx, keyenc.RegDateKey(publicHash)); err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("delete_user", "storage_failure").Inc()
		return false, err
	}
	if err := storage.Delete(tx, keyenc.PublicKeyKey(publicHash)); err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("delete_user", "storage_failure").Inc()
		return false, err
	}
	if err := records.DeleteAllForUser(tx, publicHash); err != nil {
		tx.Rollback()
		metrics.RegistryOps.WithLabelValues("delete_user", "storage_failure").Inc()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		metrics.RegistryOps.WithLabelValues("delete_user", "storage_failure").Inc()
		return false, err
	}
	metrics.RegistryOps.WithLabelValues("delete_user", "success").Inc()
	metrics.UsersTotal.Dec()
	rlog.Info().Str("user_hash_prefix", hashPrefix(publicHash)).Msg("user deleted")
	return true, nil
}
