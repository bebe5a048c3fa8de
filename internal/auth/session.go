package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/storage"
)

// Session is the identity of whoever is currently logged in.
type Session struct {
	UserID   int64
	Email    string
	LoggedIn bool
}

// Manager owns the single active session of the process and the user
// records behind it. It is not safe for concurrent use.
type Manager struct {
	users    *storage.Table[domain.User, *domain.User]
	logger   *slog.Logger
	validate *validator.Validate
	session  Session
}

// NewManager returns a Manager with nobody logged in.
func NewManager(users *storage.Table[domain.User, *domain.User], logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		users:    users,
		logger:   logger,
		validate: newValidator(),
	}
}

// Register creates a new user. It does not log the user in.
func (m *Manager) Register(email, password string) (domain.PublicUser, error) {
	if err := m.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return domain.PublicUser{}, credentialError(err)
	}

	_, exists, err := m.users.Find(func(u domain.User) bool { return u.Email == email })
	if err != nil {
		return domain.PublicUser{}, err
	}
	if exists {
		m.logger.Warn("registration rejected, email already registered", "email", email)
		return domain.PublicUser{}, domain.Conflict("this email is already registered")
	}

	hash, salt, err := HashPassword(password, nil)
	if err != nil {
		return domain.PublicUser{}, domain.Storage("could not secure password", err)
	}

	user, err := m.users.Insert(domain.User{Email: email, PasswordHash: hash, Salt: salt})
	if err != nil {
		return domain.PublicUser{}, err
	}
	m.logger.Info("user registered", "user_id", user.ID, "email", email)
	return user.Public(), nil
}

// Login verifies the credentials and makes the user current. Unknown
// emails and wrong passwords fail with the same message.
func (m *Manager) Login(email, password string) (domain.PublicUser, error) {
	if m.session.LoggedIn {
		return domain.PublicUser{}, domain.Conflict("already logged in, log out first")
	}

	user, ok, err := m.users.Find(func(u domain.User) bool { return u.Email == email })
	if err != nil {
		return domain.PublicUser{}, err
	}
	if !ok {
		m.logger.Warn("failed login, unknown email", "email", email)
		return domain.PublicUser{}, domain.Unauthorized(domain.MsgBadCredential)
	}
	if !VerifyPassword(password, user.PasswordHash, user.Salt) {
		m.logger.Warn("failed login, wrong password", "email", email, "user_id", user.ID)
		return domain.PublicUser{}, domain.Unauthorized(domain.MsgBadCredential)
	}

	m.session = Session{UserID: user.ID, Email: user.Email, LoggedIn: true}
	m.logger.Info("user logged in", "user_id", user.ID)
	return user.Public(), nil
}

// Logout clears the session.
func (m *Manager) Logout() error {
	if !m.session.LoggedIn {
		return domain.Unauthorized("not logged in")
	}
	m.logger.Info("user logged out", "user_id", m.session.UserID)
	m.session = Session{}
	return nil
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session { return m.session }

// IsLoggedIn reports whether anyone is logged in.
func (m *Manager) IsLoggedIn() bool { return m.session.LoggedIn }

// CurrentUser returns the logged-in user, if any.
func (m *Manager) CurrentUser() (domain.PublicUser, bool) {
	if !m.session.LoggedIn {
		return domain.PublicUser{}, false
	}
	return domain.PublicUser{ID: m.session.UserID, Email: m.session.Email}, true
}

// CurrentUserID returns the id of the logged-in user, or 0.
func (m *Manager) CurrentUserID() int64 {
	if !m.session.LoggedIn {
		return 0
	}
	return m.session.UserID
}

// RequireUser is the login gate run at the start of every user-scoped
// operation.
func (m *Manager) RequireUser() (int64, error) {
	if !m.session.LoggedIn {
		return 0, domain.Unauthorized(domain.MsgLoginRequired)
	}
	return m.session.UserID, nil
}

func credentialError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Validation(fmt.Sprintf("invalid credentials: %v", err))
	}
	switch verrs[0].Field() {
	case "Email":
		return domain.Validation("invalid email format")
	default:
		return domain.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
}
