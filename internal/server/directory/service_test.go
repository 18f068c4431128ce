package directory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/dmitrijs2005/userdir/internal/server/credentials"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// recordingStore wraps the in-memory repository, counts calls and can be
// told to fail.
type recordingStore struct {
	*users.MemoryRepository

	mu    sync.Mutex
	calls map[string]int

	findErr, findAllErr, saveErr, deleteErr error
	deleteReportsMissing                    bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryRepository: users.NewMemoryRepository(), calls: map[string]int{}}
}

func (s *recordingStore) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
}

func (s *recordingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.calls {
		n += v
	}
	return n
}

func (s *recordingStore) Find(ctx context.Context, id string) (*models.User, error) {
	s.hit("find")
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.MemoryRepository.Find(ctx, id)
}

func (s *recordingStore) FindAll(ctx context.Context) ([]*models.User, error) {
	s.hit("findAll")
	if s.findAllErr != nil {
		return nil, s.findAllErr
	}
	return s.MemoryRepository.FindAll(ctx)
}

func (s *recordingStore) Save(ctx context.Context, u *models.User) (*models.User, error) {
	s.hit("save")
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	return s.MemoryRepository.Save(ctx, u)
}

func (s *recordingStore) Delete(ctx context.Context, id string) (bool, error) {
	s.hit("delete")
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if s.deleteReportsMissing {
		return false, nil
	}
	return s.MemoryRepository.Delete(ctx, id)
}

// --- helpers ---

var (
	asUser  = authz.NewPrincipal("user", "USER")
	asAdmin = authz.NewPrincipal("admin", "ADMIN")
)

func testPolicy() authz.Policy {
	return authz.Policy{
		authz.OpRead:   {authz.RoleUser, authz.RoleAdmin},
		authz.OpWrite:  {authz.RoleAdmin},
		authz.OpDelete: {authz.RoleAdmin},
		authz.OpVerify: {authz.RoleAdmin},
	}
}

func newTestCreds() *credentials.Manager {
	return credentials.NewManager(credentials.Params{Time: 1, MemoryKiB: 1024, Threads: 1})
}

func newTestService(t *testing.T, opts ...Option) (*Service, *recordingStore) {
	t.Helper()
	store := newRecordingStore()
	return NewService(store, authz.NewGuard(testPolicy()), newTestCreds(), opts...), store
}

func mustCreate(t *testing.T, s *Service, name, password string) models.PublicUser {
	t.Helper()
	u, err := s.CreateUser(context.Background(), asAdmin, CreateInput{Username: name, Password: password})
	require.NoError(t, err)
	return u
}

// --- create ---

func TestCreateUser_AsAdmin(t *testing.T) {
	s, store := newTestService(t)

	got, err := s.CreateUser(context.Background(), asAdmin, CreateInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice", got.UserName)

	stored, err := store.MemoryRepository.Find(context.Background(), got.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordSalt)
	assert.NotEqual(t, "secret", stored.PasswordHash)
	assert.True(t, newTestCreds().Verify("secret", stored.PasswordSalt, stored.PasswordHash))
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"empty password", CreateInput{Username: "alice"}},
		{"empty username", CreateInput{Password: "secret"}},
		{"blank username", CreateInput{Username: "   ", Password: "secret"}},
		{"both empty", CreateInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestService(t)

			_, err := s.CreateUser(context.Background(), asAdmin, tt.in)
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Zero(t, store.total(), "no store call expected")
		})
	}
}

func TestCreateUser_DeniedBeforeValidation(t *testing.T) {
	s, store := newTestService(t)

	_, err := s.CreateUser(context.Background(), asUser, CreateInput{})
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
	assert.Zero(t, store.total())
}

func TestCreateUser_StoreError(t *testing.T) {
	s, store := newTestService(t)
	store.saveErr = errBoom{}

	_, err := s.CreateUser(context.Background(), asAdmin, CreateInput{Username: "a", Password: "p"})
	assert.ErrorIs(t, err, errBoom{})
	assert.Contains(t, err.Error(), "error creating user")
}

// --- read ---

func TestGetUser(t *testing.T) {
	s, _ := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")

	got, err := s.GetUser(context.Background(), asUser, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetUser_UnknownIDTwice(t *testing.T) {
	s, _ := newTestService(t)

	for i := 0; i < 2; i++ {
		_, err := s.GetUser(context.Background(), asUser, "999")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.Contains(t, err.Error(), "999")
	}
}

func TestGetUser_StoreErrorPropagates(t *testing.T) {
	s, store := newTestService(t)
	store.findErr = errBoom{}

	_, err := s.GetUser(context.Background(), asUser, "x")
	assert.ErrorIs(t, err, errBoom{})
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestListUsers(t *testing.T) {
	s, _ := newTestService(t)
	a := mustCreate(t, s, "alice", "p1")
	b := mustCreate(t, s, "bob", "p2")

	list, err := s.ListUsers(context.Background(), asUser)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.PublicUser{a, b}, list)
}

func TestListUsers_EmptyIsNotNil(t *testing.T) {
	s, _ := newTestService(t)

	list, err := s.ListUsers(context.Background(), asUser)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListUsers_StoreError(t *testing.T) {
	s, store := newTestService(t)
	store.findAllErr = errBoom{}

	_, err := s.ListUsers(context.Background(), asAdmin)
	assert.ErrorIs(t, err, errBoom{})
}

func TestReads_DeniedWithoutRole(t *testing.T) {
	s, store := newTestService(t)
	nobody := authz.NewPrincipal("guest")

	_, err := s.ListUsers(context.Background(), nobody)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
	_, err = s.GetUser(context.Background(), nobody, "x")
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
	assert.Zero(t, store.total())
}

// --- update ---

func TestUpdateUser_UsernameOnlyKeepsCredential(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	before, _ := store.MemoryRepository.Find(context.Background(), created.ID)

	got, err := s.UpdateUser(context.Background(), asAdmin, created.ID, UpdateInput{Username: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", got.UserName)

	after, _ := store.MemoryRepository.Find(context.Background(), created.ID)
	assert.Equal(t, before.PasswordSalt, after.PasswordSalt)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestUpdateUser_PasswordRegeneratesSalt(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	before, _ := store.MemoryRepository.Find(context.Background(), created.ID)

	got, err := s.UpdateUser(context.Background(), asAdmin, created.ID, UpdateInput{Password: "new-secret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)

	after, _ := store.MemoryRepository.Find(context.Background(), created.ID)
	assert.NotEqual(t, before.PasswordSalt, after.PasswordSalt)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	creds := newTestCreds()
	assert.True(t, creds.Verify("new-secret", after.PasswordSalt, after.PasswordHash))
	assert.False(t, creds.Verify("secret", after.PasswordSalt, after.PasswordHash))
}

func TestUpdateUser_BothEmptyIsNoOpWrite(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	before, _ := store.MemoryRepository.Find(context.Background(), created.ID)
	saves := store.calls["save"]

	got, err := s.UpdateUser(context.Background(), asAdmin, created.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
	assert.Equal(t, saves+1, store.calls["save"], "record is re-persisted")

	after, _ := store.MemoryRepository.Find(context.Background(), created.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, before.UserName, after.UserName)
}

func TestUpdateUser_NotFound(t *testing.T) {
	s, store := newTestService(t)

	_, err := s.UpdateUser(context.Background(), asAdmin, "missing", UpdateInput{Username: "x"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, store.calls["save"])
}

func TestUpdateUser_DeniedForUser(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	calls := store.total()

	_, err := s.UpdateUser(context.Background(), asUser, created.ID, UpdateInput{Username: "x"})
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
	assert.Equal(t, calls, store.total())

	got, _ := s.GetUser(context.Background(), asUser, created.ID)
	assert.Equal(t, "alice", got.UserName)
}

func TestUpdateUser_SaveErrorLeavesRecord(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	store.saveErr = errBoom{}

	_, err := s.UpdateUser(context.Background(), asAdmin, created.ID, UpdateInput{Username: "x", Password: "y"})
	assert.ErrorIs(t, err, errBoom{})

	stored, _ := store.MemoryRepository.Find(context.Background(), created.ID)
	assert.Equal(t, "alice", stored.UserName)
	assert.True(t, newTestCreds().Verify("secret", stored.PasswordSalt, stored.PasswordHash))
}

// --- delete ---

func TestDeleteUser(t *testing.T) {
	s, _ := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")

	conf, err := s.DeleteUser(context.Background(), asAdmin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Confirmation{ID: created.ID}, conf)

	_, err = s.GetUser(context.Background(), asUser, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteUser_UnknownIDTwice(t *testing.T) {
	s, _ := newTestService(t)

	for i := 0; i < 2; i++ {
		_, err := s.DeleteUser(context.Background(), asAdmin, "999")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}
}

func TestDeleteUser_RacingDeleteIsNotFound(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	store.deleteReportsMissing = true

	_, err := s.DeleteUser(context.Background(), asAdmin, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteUser_StoreError(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	store.deleteErr = errBoom{}

	_, err := s.DeleteUser(context.Background(), asAdmin, created.ID)
	assert.ErrorIs(t, err, errBoom{})
}

// --- verify ---

func TestVerifyPassword(t *testing.T) {
	s, _ := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")

	ok, err := s.VerifyPassword(context.Background(), asAdmin, created.ID, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifyPassword(context.Background(), asAdmin, created.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.VerifyPassword(context.Background(), asAdmin, "missing", "secret")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.VerifyPassword(context.Background(), asUser, created.ID, "secret")
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
}

// --- role matrix and scenarios ---

func TestRoleMatrix_UserCannotWrite(t *testing.T) {
	s, store := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")
	calls := store.total()

	_, err := s.CreateUser(context.Background(), asUser, CreateInput{Username: "b", Password: "p"})
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
	_, err = s.UpdateUser(context.Background(), asUser, created.ID, UpdateInput{Username: "b"})
	assert.ErrorIs(t, err, common.ErrorAccessDenied)
	_, err = s.DeleteUser(context.Background(), asUser, created.ID)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)

	assert.Equal(t, calls, store.total(), "denied calls must not touch the store")
}

func TestScenarioA_CreateAsAdmin(t *testing.T) {
	s, _ := newTestService(t)

	got, err := s.CreateUser(context.Background(), asAdmin, CreateInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice", got.UserName)
}

func TestScenarioB_UnknownIDAsUser(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.GetUser(context.Background(), asUser, "999")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestScenarioC_DeleteAsUserKeepsRecord(t *testing.T) {
	s, _ := newTestService(t)
	created := mustCreate(t, s, "alice", "secret")

	_, err := s.DeleteUser(context.Background(), asUser, created.ID)
	assert.ErrorIs(t, err, common.ErrorAccessDenied)

	got, err := s.GetUser(context.Background(), asUser, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestScenarioD_EmptyPasswordPersistsNothing(t *testing.T) {
	s, _ := newTestService(t)
	mustCreate(t, s, "bob", "p")

	before, err := s.ListUsers(context.Background(), asUser)
	require.NoError(t, err)

	_, err = s.CreateUser(context.Background(), asAdmin, CreateInput{Username: "alice", Password: ""})
	assert.ErrorIs(t, err, common.ErrorValidation)

	after, err := s.ListUsers(context.Background(), asUser)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
