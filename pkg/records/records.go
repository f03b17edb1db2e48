package records

import (
	bolt "go.etcd.io/bbolt"

	"github.com/vaultkv/server/pkg/keyenc"
	"github.com/vaultkv/server/pkg/log"
	"github.com/vaultkv/server/pkg/metrics"
	"github.com/vaultkv/server/pkg/storage"
	"github.com/vaultkv/server/pkg/types"
)

// Store implements the Record Store against a byte-store environment.
type Store struct {
	env *storage.Env
}

// New constructs a Store bound to env.
func New(env *storage.Env) *Store {
	return &Store{env: env}
}

// Put writes a new (revision, value) pair under a user's index. It returns
// false without error if the revision already exists — revisions are
// immutable, so a second put with the same bytes is a rejection, not an
// overwrite.
func (s *Store) Put(user types.User, index, revision, value []byte) (bool, error) {
	tx, err := s.env.BeginTxn(true)
	if err != nil {
		return false, err
	}

	ok, err := putWithTx(tx, user.PublicHash, index, revision, value)
	if err != nil {
		tx.Rollback()
		metrics.RecordOps.WithLabelValues("put", "storage_failure").Inc()
		return false, err
	}
	if !ok {
		tx.Rollback()
		metrics.RecordOps.WithLabelValues("put", "duplicate_revision").Inc()
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordOps.WithLabelValues("put", "storage_failure").Inc()
		return false, err
	}
	metrics.RecordOps.WithLabelValues("put", "success").Inc()
	return true, nil
}

// putWithTx performs the put steps inside an already-open transaction
// supplied by Store.Put.
func putWithTx(tx *bolt.Tx, publicHash, index, revision, value []byte) (bool, error) {
	storesKey := keyenc.StoresKey(publicHash)
	lookupKey := keyenc.LookupKey(publicHash, index)

	hasIndex, err := storage.HasDup(tx, storesKey, index)
	if err != nil {
		return false, err
	}
	if !hasIndex {
		if err := storage.PutDup(tx, storesKey, index); err != nil {
			return false, err
		}
	}

	exists, err := storage.HasDup(tx, lookupKey, revision)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := storage.PutDup(tx, lookupKey, revision); err != nil {
		return false, err
	}

	valueKey := keyenc.ValueKey(publicHash, index, revision)
	if err := storage.Put(tx, valueKey, value); err != nil {
		return false, err
	}
	return true, nil
}

// GetRecord returns every (revision, value) pair stored under a user's
// index, in the store's native duplicate ordering. It returns (nil, nil)
// if the index itself has never been written. A revision whose value row
// is missing — a documented orphan anomaly — is skipped rather than
// failing the whole call.
func (s *Store) GetRecord(user types.User, index []byte) ([]types.RevisionValue, error) {
	tx, err := s.env.BeginTxn(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	storesKey := keyenc.StoresKey(user.PublicHash)
	hasIndex, err := storage.HasDup(tx, storesKey, index)
	if err != nil {
		return nil, err
	}
	if !hasIndex {
		return nil, nil
	}

	lookupKey := keyenc.LookupKey(user.PublicHash, index)
	var out []types.RevisionValue
	err = storage.IterateDup(tx, lookupKey, func(revision []byte) error {
		valueKey := keyenc.ValueKey(user.PublicHash, index, revision)
		value, ok, err := storage.Get(tx, valueKey)
		if err != nil {
			return err
		}
		if !ok {
			log.WithComponent("records").Warn().Msg("revision duplicate with no value row, skipping")
			return nil
		}
		rv, err := types.NewRevisionValue(revision, value)
		if err != nil {
			return err
		}
		out = append(out, rv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRevision fetches a single (revision, value) pair directly, without
// walking the revision set. It returns (nil, nil) if absent.
func (s *Store) GetRevision(user types.User, index, revision []byte) (*types.RevisionValue, error) {
	tx, err := s.env.BeginTxn(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	valueKey := keyenc.ValueKey(user.PublicHash, index, revision)
	value, ok, err := storage.Get(tx, valueKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rv, err := types.NewRevisionValue(revision, value)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// GetIndices returns every index a user has put a revision under and not
// since deleted.
// The slice is empty, never nil, when the user has no indices.
func (s *Store) GetIndices(user types.User) ([][]byte, error) {
	tx, err := s.env.BeginTxn(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := [][]byte{}
	err = storage.IterateDup(tx, keyenc.StoresKey(user.PublicHash), func(index []byte) error {
		out = append(out, index)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRevisions returns every revision byte string stored under a user's
// index, or nil if the index has no revisions (including "never existed").
func (s *Store) GetRevisions(user types.User, index []byte) ([][]byte, error) {
	tx, err := s.env.BeginTxn(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var out [][]byte
	err = storage.IterateDup(tx, keyenc.LookupKey(user.PublicHash, index), func(revision []byte) error {
		out = append(out, revision)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRecord removes an index and every revision/value beneath it. It
// returns true if either the index-set entry or any revision row was
// actually removed.
func (s *Store) DeleteRecord(user types.User, index []byte) (bool, error) {
	tx, err := s.env.BeginTxn(true)
	if err != nil {
		return false, err
	}

	removed, err := deleteRecordWithTx(tx, user.PublicHash, index)
	if err != nil {
		tx.Rollback()
		metrics.RecordOps.WithLabelValues("delete_record", "storage_failure").Inc()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordOps.WithLabelValues("delete_record", "storage_failure").Inc()
		return false, err
	}
	metrics.RecordOps.WithLabelValues("delete_record", "success").Inc()
	return removed, nil
}

// deleteRecordWithTx removes one index and all its revisions inside an
// already-open transaction.
func deleteRecordWithTx(tx *bolt.Tx, publicHash, index []byte) (bool, error) {
	indexRemoved, err := storage.DeleteDup(tx, keyenc.StoresKey(publicHash), index)
	if err != nil {
		return false, err
	}

	revisionsRemoved, err := deleteRevisionsWithTx(tx, publicHash, index)
	if err != nil {
		return false, err
	}

	return indexRemoved || revisionsRemoved, nil
}

// deleteRevisionsWithTx walks every revision under an index, deleting the
// value row and the revision duplicate, reporting whether any were found.
func deleteRevisionsWithTx(tx *bolt.Tx, publicHash, index []byte) (bool, error) {
	lookupKey := keyenc.LookupKey(publicHash, index)

	var revisions [][]byte
	err := storage.IterateDup(tx, lookupKey, func(revision []byte) error {
		revisions = append(revisions, revision)
		return nil
	})
	if err != nil {
		return false, err
	}

	for _, revision := range revisions {
		if err := storage.Delete(tx, keyenc.ValueKey(publicHash, index, revision)); err != nil {
			return false, err
		}
	}
	if _, err := storage.DeleteDupSet(tx, lookupKey); err != nil {
		return false, err
	}
	return len(revisions) > 0, nil
}

// DeleteAllForUser cascades a user deletion into every index, revision,
// and value the user owns, inside the caller's already-open transaction.
// It is the record-store half of the registry's delete_user cascade.
func DeleteAllForUser(tx *bolt.Tx, publicHash []byte) error {
	var indices [][]byte
	err := storage.IterateDup(tx, keyenc.StoresKey(publicHash), func(index []byte) error {
		indices = append(indices, index)
		return nil
	})
	if err != nil {
		return err
	}

	for _, index := range indices {
		if _, err := deleteRevisionsWithTx(tx, publicHash, index); err != nil {
			return err
		}
	}

	if _, err := storage.DeleteDupSet(tx, keyenc.StoresKey(publicHash)); err != nil {
		return err
	}
	return nil
}
