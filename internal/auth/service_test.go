package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shoplane/backend/internal/users"
	pkgAuth "github.com/shoplane/backend/pkg/auth"
	"github.com/shoplane/backend/pkg/auth/session"
	"github.com/shoplane/backend/pkg/config"
	"github.com/shoplane/backend/pkg/db/models"
	"github.com/shoplane/backend/pkg/enums"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
	"github.com/shoplane/backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "shoplane",
		ExpirationMinutes: 30,
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo) (Service, *stubSessionManager) {
	t.Helper()
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessionMgr,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessionMgr
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func activeUser(t *testing.T, email, password string, roles ...enums.Role) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleCustomer}
	}
	dto := users.CreateUserDTO{
		Name:         "Test User",
		Email:        email,
		PasswordHash: mustHashPassword(t, password),
		Roles:        roles,
	}
	return dto.ToModel()
}

func TestServiceRegisterIssuesTokenPair(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ada",
		Email:    "  Ada@Example.COM ",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %q", resp.User.Email)
	}
	if len(resp.User.Roles) != 1 || resp.User.Roles[0] != string(enums.RoleCustomer) {
		t.Fatalf("expected default customer role, got %v", resp.User.Roles)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("claims user id mismatch")
	}
	if !claims.HasRole(enums.RoleCustomer) {
		t.Fatalf("expected customer role claim, got %v", claims.Roles)
	}
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo(activeUser(t, "taken@example.com", "secret1"))
	svc, _ := buildTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Copycat",
		Email:    "taken@example.com",
		Password: "secret1",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceLoginSameMessageForUnknownEmailAndBadPassword(t *testing.T) {
	repo := newStubUserRepo(activeUser(t, "ada@example.com", "correct-horse"))
	svc, _ := buildTestService(t, repo)

	_, unknownErr := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	_, badPassErr := svc.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})

	for _, err := range []error{unknownErr, badPassErr} {
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if typed.Error() != invalidCredentialsMessage {
			t.Fatalf("expected %q, got %q", invalidCredentialsMessage, typed.Error())
		}
	}
}

func TestServiceLoginRejectsBlockedUser(t *testing.T) {
	blocked := activeUser(t, "blocked@example.com", "secret1")
	blocked.Status = enums.UserStatusBlocked
	repo := newStubUserRepo(blocked)
	svc, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "blocked@example.com",
		Password: "secret1",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if typed.Error() != blockedUserMessage {
		t.Fatalf("expected %q, got %q", blockedUserMessage, typed.Error())
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	user := activeUser(t, "ada@example.com", "secret1", enums.RoleCustomer, enums.RoleSeller)
	repo := newStubUserRepo(user)
	svc, sessionMgr := buildTestService(t, repo)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	sessionMgr.rotatedAccessID = "rotated-access-id"
	sessionMgr.rotatedToken = "rotated-refresh"
	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated refresh token, got %q", pair.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("rotated token user id mismatch")
	}
	if !claims.HasRole(enums.RoleSeller) {
		t.Fatalf("expected roles carried across rotation, got %v", claims.Roles)
	}
	if claims.ID != "rotated-access-id" {
		t.Fatalf("expected new jti, got %q", claims.ID)
	}
}

func TestServiceRefreshRejectsUnknownSession(t *testing.T) {
	repo := newStubUserRepo(activeUser(t, "ada@example.com", "secret1"))
	svc, sessionMgr := buildTestService(t, repo)
	sessionMgr.rotateErr = true

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: "stale",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceChangePasswordVerifiesOldPassword(t *testing.T) {
	user := activeUser(t, "ada@example.com", "old-secret")
	repo := newStubUserRepo(user)
	svc, _ := buildTestService(t, repo)

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "new-secret",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	err = svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		OldPassword: "old-secret",
		NewPassword: "new-secret",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}

	valid, err := security.VerifyPassword("new-secret", repo.byID[user.ID].PasswordHash)
	if err != nil || !valid {
		t.Fatalf("expected new password to verify, valid=%v err=%v", valid, err)
	}
}

func TestServiceBecomeSellerIsIdempotent(t *testing.T) {
	user := activeUser(t, "ada@example.com", "secret1")
	repo := newStubUserRepo(user)
	svc, _ := buildTestService(t, repo)

	first, err := svc.BecomeSeller(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("become seller: %v", err)
	}
	second, err := svc.BecomeSeller(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("become seller again: %v", err)
	}

	for _, dto := range []*users.UserDTO{first, second} {
		if strings.Join(dto.Roles, ",") != "customer,seller" {
			t.Fatalf("expected customer,seller roles, got %v", dto.Roles)
		}
	}
}

func TestServiceChangePasswordUnknownUser(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := buildTestService(t, repo)

	err := svc.ChangePassword(context.Background(), uuid.New(), ChangePasswordRequest{
		OldPassword: "old",
		NewPassword: "new",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newStubUserRepo(seed ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
	for _, user := range seed {
		repo.byEmail[user.Email] = user
		repo.byID[user.ID] = user
	}
	return repo
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if user, ok := s.byID[id]; ok {
		user.PasswordHash = hash
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	if user, ok := s.byID[id]; ok {
		user.Roles = pq.StringArray(roles)
		return nil
	}
	return gorm.ErrRecordNotFound
}

type stubSessionManager struct {
	refreshToken    string
	rotatedAccessID string
	rotatedToken    string
	rotateErr       bool
	revoked         []string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr {
		return "", "", session.ErrInvalidRefreshToken
	}
	return s.rotatedAccessID, s.rotatedToken, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}
