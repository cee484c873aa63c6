package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Session/JWT primitives =====

// The API accepts either the static bearer key (for scripted clients) or
// a short-lived session cookie minted from it (for the history UI).

type AuthManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewAuthManager(secret string, secure bool, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{
		secret:     []byte(secret),
		cookieName: "foodie_session",
		ttl:        ttl,
		secure:     secure,
	}
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthManager) Mint(w http.ResponseWriter) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   "owner",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    signed,
		Path:     "/",
		Secure:   a.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(a.ttl),
	})
	return signed, nil
}

func (a *AuthManager) Verify(r *http.Request) error {
	c, err := r.Cookie(a.cookieName)
	if err != nil {
		return err
	}
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(c.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid || claims.Role != "owner" {
		return errors.New("invalid session")
	}
	return nil
}

// authMiddleware admits requests carrying either the bearer API key or a
// valid session cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("web api key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if auth := r.Header.Get("Authorization"); auth != "" {
			parts := strings.Split(auth, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] == s.apiKey {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if s.sessions != nil && s.sessions.Verify(r) == nil {
			next.ServeHTTP(w, r)
			return
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
