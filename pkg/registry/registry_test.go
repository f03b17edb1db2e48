package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/vaultkv/server/pkg/records"
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

func testUser(t *testing.T, hash byte) types.User {
	t.Helper()
	u, err := types.NewUser([]byte{0xAB, hash}, []byte{hash}, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	return u
}

func TestAddUserThenGetUser(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)
	user := testUser(t, 0x01)

	ok, err := r.AddUser(user)
	if err != nil || !ok {
		t.Fatalf("AddUser() = (%v, %v), want (true, nil)", ok, err)
	}

	got, err := r.GetUser(user.PublicHash)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if string(got.PublicKey) != string(user.PublicKey) {
		t.Errorf("GetUser().PublicKey = %v, want %v", got.PublicKey, user.PublicKey)
	}
	if !got.RegistrationTime.Equal(user.RegistrationTime) {
		t.Errorf("GetUser().RegistrationTime = %v, want %v", got.RegistrationTime, user.RegistrationTime)
	}
}

func TestAddUserRejectsDuplicate(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)
	user := testUser(t, 0x02)

	if ok, err := r.AddUser(user); err != nil || !ok {
		t.Fatalf("first AddUser() = (%v, %v)", ok, err)
	}
	ok, err := r.AddUser(user)
	if err != nil {
		t.Fatalf("second AddUser() error = %v", err)
	}
	if ok {
		t.Error("second AddUser() = true, want false for duplicate registration")
	}
}

func TestGetUserUnregisteredReturnsErrInvalidUser(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)

	_, err := r.GetUser([]byte{0xFF})
	if !errors.Is(err, types.ErrInvalidUser) {
		t.Fatalf("GetUser() error = %v, want wrapping ErrInvalidUser", err)
	}
}

func TestHaveUser(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)
	user := testUser(t, 0x03)

	have, err := r.HaveUser(user.PublicHash)
	if err != nil || have {
		t.Fatalf("HaveUser() before registration = (%v, %v), want (false, nil)", have, err)
	}

	if _, err := r.AddUser(user); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	have, err = r.HaveUser(user.PublicHash)
	if err != nil || !have {
		t.Fatalf("HaveUser() after registration = (%v, %v), want (true, nil)", have, err)
	}
}

func TestDeleteUserReportsAbsence(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)

	removed, err := r.DeleteUser([]byte{0xEE})
	if err != nil || removed {
		t.Fatalf("DeleteUser() of unregistered user = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestDeleteUserCascadesRecords(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)
	rs := records.New(env)
	user := testUser(t, 0x04)

	if _, err := r.AddUser(user); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if ok, err := rs.Put(user, []byte("idx"), []byte("rev1"), []byte("value")); err != nil || !ok {
		t.Fatalf("Put() = (%v, %v)", ok, err)
	}

	removed, err := r.DeleteUser(user.PublicHash)
	if err != nil || !removed {
		t.Fatalf("DeleteUser() = (%v, %v), want (true, nil)", removed, err)
	}

	have, err := r.HaveUser(user.PublicHash)
	if err != nil || have {
		t.Fatalf("HaveUser() after delete = (%v, %v), want (false, nil)", have, err)
	}

	rv, err := rs.GetRevision(user, []byte("idx"), []byte("rev1"))
	if err != nil {
		t.Fatalf("GetRevision() after cascade delete error = %v", err)
	}
	if rv != nil {
		t.Errorf("GetRevision() after cascade delete = %+v, want nil", rv)
	}

	indices, err := rs.GetIndices(user)
	if err != nil {
		t.Fatalf("GetIndices() after cascade delete error = %v", err)
	}
	if len(indices) != 0 {
		t.Errorf("GetIndices() after cascade delete = %v, want empty", indices)
	}
}

func TestGetPublicKey(t *testing.T) {
	env := openTestEnv(t)
	r := New(env)
	user := testUser(t, 0x05)

	if _, err := r.AddUser(user); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	key, ok, err := r.GetPublicKey(user.PublicHash)
	if err != nil || !ok {
		t.Fatalf("GetPublicKey() = (_, %v, %v), want (_, true, nil)", ok, err)
	}
	if string(key) != string(user.PublicKey) {
		t.Errorf("GetPublicKey() = %v, want %v", key, user.PublicKey)
	}
}
