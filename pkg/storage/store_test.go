package storage

import (
	"testing"

	bolt "go.etcd.io/bbolt"
)

func openTestEnv(t *testing.T) *Env {
	t.Helper()
	env, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env
}

func TestPlainGetPutDelete(t *testing.T) {
	env := openTestEnv(t)

	tx, err := env.BeginTxn(true)
	if err != nil {
		t.Fatalf("BeginTxn() error = %v", err)
	}
	if err := Put(tx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	tx, err = env.BeginTxn(false)
	if err != nil {
		t.Fatalf("BeginTxn() error = %v", err)
	}
	defer tx.Rollback()

	v, ok, err := Get(tx, []byte("k"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || string(v) != "v" {
		t.Fatalf("Get() = (%q, %v), want (\"v\", true)", v, ok)
	}
}

func TestDeleteMissingKeyIsNotError(t *testing.T) {
	env := openTestEnv(t)

	tx, err := env.BeginTxn(true)
	if err != nil {
		t.Fatalf("BeginTxn() error = %v", err)
	}
	defer tx.Rollback()

	if err := Delete(tx, []byte("absent")); err != nil {
		t.Errorf("Delete() of missing key error = %v, want nil", err)
	}
}

func TestDupSetPutHasDeleteOrdering(t *testing.T) {
	env := openTestEnv(t)

	err := env.withWritable(func(tx *bolt.Tx) error {
		for _, v := range [][]byte{{0x03}, {0x01}, {0x02}} {
			if err := PutDup(tx, []byte("dups"), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("populate dup set: %v", err)
	}

	var order []byte
	err = env.withReadOnly(func(tx *bolt.Tx) error {
		return IterateDup(tx, []byte("dups"), func(value []byte) error {
			order = append(order, value...)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("IterateDup() error = %v", err)
	}
	if string(order) != string([]byte{0x01, 0x02, 0x03}) {
		t.Errorf("IterateDup() order = %v, want ascending [1 2 3]", order)
	}

	err = env.withReadOnly(func(tx *bolt.Tx) error {
		ok, err := HasDup(tx, []byte("dups"), []byte{0x02})
		if err != nil {
			return err
		}
		if !ok {
			t.Error("HasDup() = false, want true for a present duplicate")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("HasDup() check error = %v", err)
	}

	err = env.withWritable(func(tx *bolt.Tx) error {
		removed, err := DeleteDup(tx, []byte("dups"), []byte{0x02})
		if err != nil {
			return err
		}
		if !removed {
			t.Error("DeleteDup() = false, want true")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("DeleteDup() error = %v", err)
	}

	err = env.withReadOnly(func(tx *bolt.Tx) error {
		ok, err := HasDup(tx, []byte("dups"), []byte{0x02})
		if err != nil {
			return err
		}
		if ok {
			t.Error("HasDup() = true after delete, want false")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("post-delete HasDup() error = %v", err)
	}
}

func TestDeleteDupSetRemovesAllValues(t *testing.T) {
	env := openTestEnv(t)

	err := env.withWritable(func(tx *bolt.Tx) error {
		return PutDup(tx, []byte("k"), []byte{0x01})
	})
	if err != nil {
		t.Fatalf("PutDup() error = %v", err)
	}
	err = env.withWritable(func(tx *bolt.Tx) error {
		return PutDup(tx, []byte("k"), []byte{0x02})
	})
	if err != nil {
		t.Fatalf("PutDup() error = %v", err)
	}

	var n int
	err = env.withWritable(func(tx *bolt.Tx) error {
		var err error
		n, err = DeleteDupSet(tx, []byte("k"))
		return err
	})
	if err != nil {
		t.Fatalf("DeleteDupSet() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteDupSet() removed = %d, want 2", n)
	}

	err = env.withReadOnly(func(tx *bolt.Tx) error {
		has, err := HasDupSet(tx, []byte("k"))
		if err != nil {
			return err
		}
		if has {
			t.Error("HasDupSet() = true after DeleteDupSet, want false")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("HasDupSet() error = %v", err)
	}
}

func TestAbortLeavesNoVisibleState(t *testing.T) {
	env := openTestEnv(t)

	tx, err := env.BeginTxn(true)
	if err != nil {
		t.Fatalf("BeginTxn() error = %v", err)
	}
	if err := Put(tx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	err = env.withReadOnly(func(tx *bolt.Tx) error {
		_, ok, err := Get(tx, []byte("k"))
		if err != nil {
			return err
		}
		if ok {
			t.Error("Get() found a value from an aborted transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

// withWritable and withReadOnly are test-only helpers layered on BeginTxn
// to keep the tests above free of commit/rollback bookkeeping.
func (e *Env) withWritable(fn func(tx *bolt.Tx) error) error {
	tx, err := e.BeginTxn(true)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (e *Env) withReadOnly(fn func(tx *bolt.Tx) error) error {
	tx, err := e.BeginTxn(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}
