package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/gateway"
)

// API is the slice of the gateway the store needs.
type API interface {
	Do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error)
}

// Store owns the single active session for the process: who is logged
// in, which state the session is in, and the permission checks derived
// from the role. Token persistence is delegated to the TokenStore.
type Store struct {
	mu       sync.RWMutex
	state    State
	session  *Session
	tokens   *TokenStore
	api      API
	logger   *slog.Logger
	onLogout []func()
}

func NewStore(api API, tokens *TokenStore, logger *slog.Logger) *Store {
	return &Store{
		state:  StateUnknown,
		tokens: tokens,
		api:    api,
		logger: logger,
	}
}

// OnLogout registers a hook run on every session teardown (explicit
// logout and unrecoverable refresh failure alike). The data cache uses
// this to drop its collections.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns a copy of the active session.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// HasPermission checks the active session's role against the static
// table. No session means no permissions.
func (s *Store) HasPermission(module Module, action Action) bool {
	sess, ok := s.Current()
	if !ok {
		return false
	}
	return HasPermission(sess.Role, module, action)
}

// Hydrate restores the session on startup: when a persisted access token
// exists, fetch the profile and mark Authenticated. Every failure mode
// resets silently to Unauthenticated; hydration never surfaces errors.
func (s *Store) Hydrate(ctx context.Context) {
	if s.tokens.AccessToken() == "" {
		s.setUnauthenticated()
		return
	}

	raw, err := s.api.Do(ctx, http.MethodGet, "/auth/profile/", nil)
	if err != nil || raw == nil {
		s.logger.Debug("session hydration failed, starting unauthenticated", "error", err)
		s.teardown()
		return
	}

	var dto datamodel.UserDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		s.logger.Debug("profile payload unreadable, starting unauthenticated", "error", err)
		s.teardown()
		return
	}

	s.setSession(dto.ToUser())
}

// Login authenticates and replaces any previous session.
func (s *Store) Login(ctx context.Context, input LoginInput) (Session, error) {
	if err := input.Validate(); err != nil {
		return Session{}, err
	}

	raw, err := s.api.Do(ctx, http.MethodPost, "/auth/login/", map[string]string{
		"email":    input.Email,
		"password": input.Password,
	})
	if err != nil {
		if gateway.StatusOf(err) == http.StatusUnauthorized || gateway.StatusOf(err) == http.StatusBadRequest {
			return Session{}, internal.ErrInvalidCredentials.WithCause(err)
		}
		return Session{}, internal.NewInternalError("login failed", err)
	}

	return s.adoptAuthResponse(raw)
}

// Register signs up a new account and logs it in.
func (s *Store) Register(ctx context.Context, input SignupInput) (Session, error) {
	if err := input.Validate(); err != nil {
		return Session{}, err
	}

	first, last := splitName(input.Name)
	req := registerRequest{
		Username:        usernameFromEmail(input.Email),
		Email:           input.Email,
		Password:        input.Password,
		PasswordConfirm: input.Password,
		FirstName:       first,
		LastName:        last,
		Phone:           input.Phone,
	}

	raw, err := s.api.Do(ctx, http.MethodPost, "/auth/register/", req)
	if err != nil {
		return Session{}, wrapBackendError("signup failed", err)
	}

	return s.adoptAuthResponse(raw)
}

// CreateUser creates a staff account on behalf of an admin. The caller's
// own session is untouched; the response tokens, if any, are discarded.
func (s *Store) CreateUser(ctx context.Context, input CreateUserInput) (datamodel.User, error) {
	if err := input.Validate(); err != nil {
		return datamodel.User{}, err
	}

	first, last := splitName(input.Name)
	req := registerRequest{
		Email:           input.Email,
		Password:        input.Password,
		PasswordConfirm: input.Password,
		FirstName:       first,
		LastName:        last,
		Phone:           input.Phone,
		Role:            string(input.Role),
		Manager:         input.ManagerID.String(),
	}

	raw, err := s.api.Do(ctx, http.MethodPost, "/auth/register/", req)
	if err != nil {
		return datamodel.User{}, wrapBackendError("create user failed", err)
	}

	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return datamodel.User{}, internal.NewInternalError("unreadable create-user response", err)
	}
	return resp.User.ToUser(), nil
}

// Logout clears the persisted tokens and runs the teardown hooks.
func (s *Store) Logout(ctx context.Context) error {
	s.teardown()
	return nil
}

// HandleAuthFailure is wired as the gateway's auth-failure hook: an
// unrecoverable refresh tears the session down exactly like a logout.
func (s *Store) HandleAuthFailure() {
	s.logger.Warn("session expired, clearing credentials")
	s.teardown()
}

func (s *Store) adoptAuthResponse(raw json.RawMessage) (Session, error) {
	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Session{}, internal.NewInternalError("unreadable auth response", err)
	}
	if resp.Access == "" || resp.Refresh == "" {
		return Session{}, internal.ErrInvalidToken
	}

	if err := s.tokens.UpdateTokens(resp.Access, resp.Refresh); err != nil {
		return Session{}, internal.NewInternalError("persist tokens", err)
	}

	sess := s.setSession(resp.User.ToUser())
	return sess, nil
}

func (s *Store) setSession(user datamodel.User) Session {
	sess := Session{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		Email:       user.Email,
		Phone:       user.Phone,
		Role:        user.Role,
	}

	s.mu.Lock()
	s.session = &sess
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.logger.Info("session established", "user", sess.Username, "role", sess.Role)
	return sess
}

func (s *Store) setUnauthenticated() {
	s.mu.Lock()
	s.session = nil
	s.state = StateUnauthenticated
	s.mu.Unlock()
}

func (s *Store) teardown() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Error("failed to clear persisted tokens", "error", err)
	}

	s.mu.Lock()
	s.session = nil
	s.state = StateUnauthenticated
	hooks := make([]func(), len(s.onLogout))
	copy(hooks, s.onLogout)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

func usernameFromEmail(email string) string {
	for i, r := range email {
		if r == '@' {
			return email[:i]
		}
	}
	return email
}

func wrapBackendError(message string, err error) error {
	if httpErr, ok := err.(*gateway.HTTPError); ok {
		appErr := internal.NewExternalError(message, httpErr.Status)
		if httpErr.Fields != nil {
			appErr = appErr.WithDetails(httpErr.Fields)
		}
		return appErr.WithCause(err)
	}
	return internal.NewInternalError(message, err)
}
