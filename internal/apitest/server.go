// Package apitest provides an in-process stand-in for the CRM backend
// so gateway, session and cache behavior can be tested against real
// HTTP semantics: bearer auth, token refresh, DRF-style list envelopes.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "crm-apitest"

type account struct {
	ID           int
	Email        string
	Username     string
	FirstName    string
	LastName     string
	Phone        string
	Role         string
	PasswordHash []byte
}

// Server is the fake backend. All knobs are safe to flip between
// requests; state is guarded by one mutex.
type Server struct {
	mu sync.Mutex

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Paginate wraps list responses in the count/results envelope when
	// true, returns bare arrays when false.
	Paginate bool
	// RotateRefresh includes a new refresh token in refresh responses.
	RotateRefresh bool
	// RejectRefresh makes the refresh endpoint fail with 401.
	RejectRefresh bool

	users       map[string]*account
	collections map[string][]map[string]interface{}
	nextID      int

	refreshCalls int
	listCalls    map[string]int
	failLists    map[string]int

	router chi.Router
}

func NewServer() *Server {
	s := &Server{
		secret:      []byte("apitest-secret"),
		accessTTL:   time.Hour,
		refreshTTL:  24 * time.Hour,
		Paginate:    true,
		users:       make(map[string]*account),
		collections: make(map[string][]map[string]interface{}),
		nextID:      1,
		listCalls:   make(map[string]int),
		failLists:   make(map[string]int),
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(email, password, role string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.users[email] = &account{
		ID:           id,
		Email:        email,
		Username:     localPart(email),
		Role:         role,
		PasswordHash: hash,
	}
	return id
}

// SeedCollection replaces the stored records for one collection.
func (s *Server) SeedCollection(name string, records []map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = append([]map[string]interface{}(nil), records...)
}

// IssueTokens mints a pair for the given account, with the access token
// expiring after accessTTL. A negative TTL yields an already expired
// access token next to a valid refresh token, which is how tests drive
// the 401-refresh-retry path.
func (s *Server) IssueTokens(email string, accessTTL time.Duration) (access, refresh string) {
	s.mu.Lock()
	user, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("apitest: unknown user %s", email))
	}
	return s.mintToken(user, "access", accessTTL), s.mintToken(user, "refresh", s.refreshTTL)
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// FailNextList makes the next n list requests for one collection return
// a 500, for exercising partial-refresh handling.
func (s *Server) FailNextList(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLists[name] = n
}

func (s *Server) ListCalls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls[name]
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)
		r.Post("/token/refresh/", s.handleRefresh)
		r.With(s.requireAuth).Get("/profile/", s.handleProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.countListAttempts)
		r.Use(s.requireAuth)
		r.Get("/{collection}/", s.handleList)
		r.Post("/{collection}/", s.handleCreate)
		r.Put("/{collection}/{id}/", s.handleUpdate)
		r.Delete("/{collection}/{id}/", s.handleDelete)
		r.Post("/{collection}/{id}/{action}/", s.handleAction)
	})

	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "malformed request"})
		return
	}

	s.mu.Lock()
	user, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    userJSON(user),
		"access":  s.mintToken(user, "access", s.accessTTL),
		"refresh": s.mintToken(user, "refresh", s.refreshTTL),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Role      string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "malformed request"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"email": []string{"this field is required"},
		})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"email": []string{"user with this email already exists"},
		})
		return
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	role := req.Role
	if role == "" {
		role = "employee"
	}
	user := &account{
		ID:           s.nextID,
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		PasswordHash: hash,
	}
	if user.Username == "" {
		user.Username = localPart(req.Email)
	}
	s.nextID++
	s.users[req.Email] = user
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    userJSON(user),
		"access":  s.mintToken(user, "access", s.accessTTL),
		"refresh": s.mintToken(user, "refresh", s.refreshTTL),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	reject := s.RejectRefresh
	rotate := s.RotateRefresh
	s.mu.Unlock()

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "refresh token required"})
		return
	}

	user, kind, err := s.parseToken(req.Refresh)
	if reject || err != nil || kind != "refresh" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "token is invalid or expired"})
		return
	}

	resp := map[string]interface{}{
		"access": s.mintToken(user, "access", s.accessTTL),
	}
	if rotate {
		resp["refresh"] = s.mintToken(user, "refresh", s.refreshTTL)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(accountKey{}).(*account)
	writeJSON(w, http.StatusOK, userJSON(user))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	s.mu.Lock()
	if s.failLists[name] > 0 {
		s.failLists[name]--
		s.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"detail": "internal error"})
		return
	}
	records := append([]map[string]interface{}(nil), s.collections[name]...)
	paginate := s.Paginate
	s.mu.Unlock()

	if paginate {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(records),
			"results": records,
		})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	var record map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "malformed request"})
		return
	}

	s.mu.Lock()
	record["id"] = s.nextID
	s.nextID++
	s.collections[name] = append(s.collections[name], record)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "malformed request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, record := range s.collections[name] {
		if idString(record["id"]) == id {
			for k, v := range patch {
				record[k] = v
			}
			s.collections[name][i] = record
			writeJSON(w, http.StatusOK, record)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"detail": "not found"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.collections[name]
	for i, record := range records {
		if idString(record["id"]) == id {
			s.collections[name] = append(records[:i], records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"detail": "not found"})
}

// handleAction covers the backend's verb sub-routes: approve, reject,
// mark_read, toggle_active and friends. It mutates the status-ish field
// the verb implies and echoes the record.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, record := range s.collections[name] {
		if idString(record["id"]) != id {
			continue
		}
		switch action {
		case "approve":
			record["status"] = "approved"
		case "reject":
			record["status"] = "rejected"
		case "mark_read":
			record["is_read"] = true
		case "toggle_active":
			active, _ := record["is_active"].(bool)
			record["is_active"] = !active
		default:
			record["last_action"] = action
		}
		s.collections[name][i] = record
		writeJSON(w, http.StatusOK, record)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"detail": "not found"})
}

type accountKey struct{}

func contextWithAccount(ctx context.Context, user *account) context.Context {
	return context.WithValue(ctx, accountKey{}, user)
}

// countListAttempts records every list request, including ones the auth
// middleware will reject, so tests can observe the retry discipline.
func (s *Server) countListAttempts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if name := chi.URLParam(r, "collection"); name != "" {
				s.mu.Lock()
				s.listCalls[name]++
				s.mu.Unlock()
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "authentication credentials were not provided"})
			return
		}

		user, kind, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || kind != "access" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "token is invalid or expired"})
			return
		}

		ctx := contextWithAccount(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tokenClaims struct {
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *Server) mintToken(user *account, kind string, ttl time.Duration) string {
	now := time.Now()
	claims := tokenClaims{
		Email:     user.Email,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) parseToken(token string) (*account, string, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	user, ok := s.users[claims.Email]
	s.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown account %s", claims.Email)
	}
	return user, claims.TokenType, nil
}

func userJSON(user *account) map[string]interface{} {
	return map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      user.Phone,
		"role":       user.Role,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func localPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func idString(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprint(int(n))
	case int:
		return fmt.Sprint(n)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}
