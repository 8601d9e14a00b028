package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bottega/internal/log"
)

// AuthManager issues and validates the HS256 bearer tokens guarding the
// mutation endpoints, checked against one configured admin credential.
// With no password hash configured auth is disabled and the guard passes
// everything through, which keeps local development tokenless.
type AuthManager struct {
	secret    []byte
	tokenTTL  time.Duration
	adminUser string
	adminHash string // bcrypt
}

func NewAuthManager(secret string, tokenTTL time.Duration, adminUser, adminHash string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		adminUser: adminUser,
		adminHash: adminHash,
	}
}

// Enabled reports whether credentials are configured at all.
func (a *AuthManager) Enabled() bool {
	return a.adminHash != ""
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

var errInvalidCredentials = errors.New("invalid credentials")

// Login verifies the admin credential and returns a signed token.
func (a *AuthManager) Login(username, password string) (loginResponse, error) {
	if !a.Enabled() {
		return loginResponse{}, errors.New("authentication not configured")
	}
	if strings.TrimSpace(username) != a.adminUser {
		return loginResponse{}, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(a.adminHash), []byte(password)) != nil {
		return loginResponse{}, errInvalidCredentials
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	claims := jwtlib.RegisteredClaims{
		Subject:   a.adminUser,
		IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		Issuer:    "bottega",
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return loginResponse{}, err
	}
	return loginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

// ParseToken validates a bearer token and returns its subject.
func (a *AuthManager) ParseToken(tokenStr string) (string, error) {
	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("invalid token subject")
	}
	return sub, nil
}

// requireAuth guards a handler behind a valid bearer token.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			next(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := s.auth.ParseToken(strings.TrimSpace(tokenStr)); err != nil {
			s.logger.WarnContext(r.Context(), "Rejected token",
				log.FieldPath, r.URL.Path,
				log.FieldError, err.Error())
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
