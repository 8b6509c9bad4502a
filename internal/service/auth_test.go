package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/code-editor-backend/internal/apperror"
	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/model"
)

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email != "" && u.Email == user.Email {
			return apperror.ValidationFailed("email", "The email has already been taken.")
		}
	}
	m.nextID++
	user.ID = m.nextID
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("User")
}

func (m *mockUserRepo) UpsertGitHub(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID && u.GitHubID != 0 {
			u.Login = user.Login
			u.Email = user.Email
			user.ID = u.ID
			user.Role = u.Role
			return nil
		}
	}
	m.nextID++
	user.ID = m.nextID
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	repo := newMockUserRepo()
	svc := NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
	return svc, repo, tokens
}

func TestRegister_IssuesRoleCarryingToken(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	res, err := svc.Register(context.Background(), "alice@example.com", "long-enough-pw")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token == "" {
		t.Fatal("Register() returned no token")
	}
	if res.User.Role != model.RoleUser {
		t.Errorf("Role = %q, want user", res.User.Role)
	}

	id, err := tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if id.Subject != res.User.ID || id.Role != model.RoleUser {
		t.Errorf("token claims = %+v, want subject %d role user", id, res.User.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "long-enough-pw"},
		{"not an email", "nope", "long-enough-pw"},
		{"short password", "a@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "a@example.com", "long-enough-pw"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), "a@example.com", "another-password")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("duplicate email: error = %v, want ErrValidation", err)
	}
}

func TestLogin_RightAndWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	svc.Register(context.Background(), "a@example.com", "long-enough-pw")

	if _, err := svc.Login(context.Background(), "a@example.com", "long-enough-pw"); err != nil {
		t.Errorf("Login() with right password: %v", err)
	}

	_, errWrongPw := svc.Login(context.Background(), "a@example.com", "wrong-password")
	_, errNoUser := svc.Login(context.Background(), "nobody@example.com", "whatever")

	if !errors.Is(errWrongPw, apperror.ErrUnauthenticated) || !errors.Is(errNoUser, apperror.ErrUnauthenticated) {
		t.Fatalf("wrong pw = %v, no user = %v; want ErrUnauthenticated for both", errWrongPw, errNoUser)
	}
	// Same message either way — no account probing.
	if errWrongPw.Error() != errNoUser.Error() {
		t.Errorf("messages differ: %q vs %q", errWrongPw, errNoUser)
	}
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	svc, repo, tokens := newTestAuthService(t)

	res, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 1234567, Login: "sakif", Email: "sakif@example.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	id, err := tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if id.Role != model.RoleUser {
		t.Errorf("Role claim = %q, want user", id.Role)
	}
	if len(repo.users) != 1 {
		t.Errorf("store has %d users, want 1", len(repo.users))
	}

	// Second sign-in reuses the account.
	again, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 1234567, Login: "sakif", Email: "sakif@example.com",
	})
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}
	if again.User.ID != res.User.ID {
		t.Errorf("second sign-in created a new account: %d vs %d", again.User.ID, res.User.ID)
	}
}
