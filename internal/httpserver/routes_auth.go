// internal/httpserver/routes_auth.go
//
// Authentication, player identity and profile routes.
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me, /games/mine (require auth)
//   - GET  /leaderboard (public)

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/auth"
)

const anonCookieName = "wordle_anon"

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.Get("/leaderboard", s.handleLeaderboard)

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, currentUser(r))
		})
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.Users.Create(body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "Username taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.Users.Login(body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setAuthCookie(w, "", time.Time{}, -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// issueToken signs a JWT, sets the auth cookie and claims the guest history.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.Signer.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setAuthCookie(w, tok, exp, 0)
	if anonID, ok := s.verifiedAnonID(r); ok && s.History != nil {
		if err := s.History.ClaimGames(r.Context(), anonID, u.ID); err != nil {
			log.Warn().Err(err).Msg("claim anon games")
		}
	}
	return true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.History.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.History.Games(r.Context(), currentUser(r).ID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	rows, err := s.History.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// --------------------------- identity middleware ---------------------------

// userFromToken resolves a valid token to an existing user.
func (s *Server) userFromToken(r *http.Request) (*authUser, error) {
	tok := auth.BearerOrCookie(r, s.Config.CookieName)
	if tok == "" {
		return nil, auth.ErrInvalidToken
	}
	claims, err := s.Signer.Parse(tok)
	if err != nil {
		return nil, err
	}
	// Ensure user still exists
	if _, err := s.Users.FindByID(claims.ID); err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &authUser{ID: claims.ID, Username: claims.Username}, nil
}

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := s.userFromToken(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.userFromToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

// player returns the actor identity of the caller: the user id when authenticated,
// otherwise a stable anonymous id carried in a signed cookie.
func (s *Server) player(w http.ResponseWriter, r *http.Request) actor.ID {
	if u := currentUser(r); u != nil {
		return actor.ID(u.ID)
	}
	return actor.ID(s.ensureAnonID(w, r))
}

// verifiedAnonID returns the guest identity of a valid anon cookie.
func (s *Server) verifiedAnonID(r *http.Request) (string, bool) {
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := s.Signer.ParseAnon(c.Value)
	if err != nil {
		log.Debug().Msg("rejecting anon cookie")
		return "", false
	}
	return id, true
}

// ensureAnonID returns the identity of a valid anon cookie, or mints a new one.
// A cookie that fails verification is replaced, never trusted.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.verifiedAnonID(r); ok {
		return id
	}
	id, tok, err := s.Signer.MintAnon()
	if err != nil {
		// fresh id for this request only; the guest is not kept across requests
		log.Warn().Err(err).Msg("mint anon cookie")
		return id
	}
	http.SetCookie(w, s.cookie(anonCookieName, tok, time.Now().Add(180*24*time.Hour), 0))
	return id
}

// setAuthCookie writes (or, with maxAge < 0, deletes) the auth token cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time, maxAge int) {
	http.SetCookie(w, s.cookie(s.Config.CookieName, token, exp, maxAge))
}

func (s *Server) cookie(name, value string, exp time.Time, maxAge int) *http.Cookie {
	secure := s.Config.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}
