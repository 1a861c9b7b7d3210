package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	userserrors "roomly/internal/users/errors"
	"roomly/internal/users/validator"
	"roomly/pkg/auth"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUserRepo enforces the same uniqueness rules as the stores.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
}

func newMemUserRepo(seed ...*model.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*model.User{}}
	for _, u := range seed {
		_ = r.Create(context.Background(), u)
	}
	return r
}

func (r *memUserRepo) duplicate(u *model.User) bool {
	for id, other := range r.users {
		if id != u.ID && (other.IDNumber == u.IDNumber || other.Phone == u.Phone) {
			return true
		}
	}
	return false
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = ""
	if r.duplicate(u) {
		return fmt.Errorf("%w: %s", userserrors.ErrDuplicate, u.IDNumber)
	}
	r.nextID++
	u.ID = strconv.Itoa(r.nextID)
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) FindByCredentials(_ context.Context, idNumber, phone string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.IDNumber == idNumber && u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, idNumber)
}

func (r *memUserRepo) FindAll(_ context.Context, limit int, offset int64) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.User{}
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, u.ID)
	}
	if r.duplicate(u) {
		return fmt.Errorf("%w: %s", userserrors.ErrDuplicate, u.IDNumber)
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type stubIssuer struct {
	issued []auth.Principal
	err    error
}

func (s *stubIssuer) Issue(p auth.Principal) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.issued = append(s.issued, p)
	return "token-for-" + p.UserID, nil
}

func newTestService(repo *memUserRepo, issuer *stubIssuer) UserService {
	log := logger.Discard()
	return NewUserService(repo, validator.NewUserValidator(log), sanitizer.NewPhoneNormalizer("TH"), issuer, &config.Config{Log: log})
}

func admin() *model.User {
	return &model.User{Name: "Admin", IDNumber: "1100000000001", Phone: "+66812345678", Role: model.RoleAdmin}
}

func TestLogin_LocalPhoneFormatMatches(t *testing.T) {
	repo := newMemUserRepo(admin())
	issuer := &stubIssuer{}
	svc := newTestService(repo, issuer)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{IDNumber: "1-1000-00000-00-1", Phone: "081-234-5678"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.Role)
	assert.Equal(t, "token-for-1", resp.AccessToken)
	require.Len(t, issuer.issued, 1)
	assert.Equal(t, "1100000000001", issuer.issued[0].IDNumber)
}

func TestLogin_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  model.LoginRequest
	}{
		{"wrong phone", model.LoginRequest{IDNumber: "1100000000001", Phone: "0899999999"}},
		{"unknown id", model.LoginRequest{IDNumber: "9999", Phone: "0812345678"}},
		{"unparsable phone", model.LoginRequest{IDNumber: "1100000000001", Phone: "abc"}},
		{"empty", model.LoginRequest{}},
	}

	svc := newTestService(newMemUserRepo(admin()), &stubIssuer{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Login(context.Background(), &req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
		})
	}
}

func TestLogin_IssuerFailureIsInternal(t *testing.T) {
	svc := newTestService(newMemUserRepo(admin()), &stubIssuer{err: errors.New("no key")})

	_, err := svc.Login(context.Background(), &model.LoginRequest{IDNumber: "1100000000001", Phone: "0812345678"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestCreate_DefaultsRoleAndRejectsDuplicates(t *testing.T) {
	svc := newTestService(newMemUserRepo(admin()), &stubIssuer{})

	user := &model.User{Name: "Niran", IDNumber: "2200000000002", Phone: "0823456789"}
	require.NoError(t, svc.Create(context.Background(), user))
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "+66823456789", user.Phone)

	dup := &model.User{Name: "Other", IDNumber: "3300000000003", Phone: "082-345-6789"}
	err := svc.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestCreate_InvalidPhone(t *testing.T) {
	svc := newTestService(newMemUserRepo(), &stubIssuer{})

	err := svc.Create(context.Background(), &model.User{Name: "X", IDNumber: "4400", Phone: "not-a-phone"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestDelete_KeepsLastUser(t *testing.T) {
	repo := newMemUserRepo(admin(), &model.User{Name: "Niran", IDNumber: "2200000000002", Phone: "+66823456789", Role: model.RoleUser})
	svc := newTestService(repo, &stubIssuer{})

	require.NoError(t, svc.Delete(context.Background(), "2"))

	err := svc.Delete(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	n, _ := repo.Count(context.Background())
	assert.Equal(t, int64(1), n)

	err = svc.Delete(context.Background(), "77")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdate_DuplicatePhoneIsConflict(t *testing.T) {
	repo := newMemUserRepo(admin(), &model.User{Name: "Niran", IDNumber: "2200000000002", Phone: "+66823456789", Role: model.RoleUser})
	svc := newTestService(repo, &stubIssuer{})

	phone := "0812345678"
	_, err := svc.Update(context.Background(), "2", &model.UserUpdate{Phone: &phone})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	name := "Niran K."
	user, err := svc.Update(context.Background(), "2", &model.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Niran K.", user.Name)
	assert.Equal(t, "+66823456789", user.Phone)
}

func TestFind_MissIsNil(t *testing.T) {
	svc := newTestService(newMemUserRepo(admin()), &stubIssuer{})

	user, err := svc.Find(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Name)

	user, err = svc.Find(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, user)
}
