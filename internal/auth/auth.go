// internal/auth/auth.go
//
// Player accounts and tokens.
// Responsibilities:
//   - Users table access: create (validated, bcrypt-hashed), find by username or id.
//   - HS256 JWT signing and parsing with id/username claims.
//   - Token extraction from Authorization header or auth cookie.
//
// Notes:
//   - A registered player's actor identity is the user id; guests use an anonymous id
//     ("anon:" + GenID) carried in a signed token, so a client cannot choose it.

package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrInvalidLogin  = errors.New("invalid username or password")
	ErrInvalidToken  = errors.New("invalid token")
)

// User matches the users table shape.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
}

// Claims are the identity fields carried by a token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Users is the users table.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

// Create validates input, checks uniqueness, hashes password, and inserts a new user.
func (u *Users) Create(username, pw string) (*User, error) {
	username = normalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = u.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	user := &User{ID: GenID(), Username: username, PasswordHash: string(h), CreatedAt: now}
	if _, err := u.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		user.ID, user.Username, user.PasswordHash, now.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the user when the password matches.
func (u *Users) Login(username, pw string) (*User, error) {
	user, err := u.FindByUsername(normalizeUsername(username))
	if err != nil || !CheckPassword(user.PasswordHash, pw) {
		return nil, ErrInvalidLogin
	}
	return user, nil
}

func (u *Users) FindByUsername(username string) (*User, error) {
	row := u.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func (u *Users) FindByID(id string) (*User, error) {
	row := u.db.QueryRow(`SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.Wins, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// CheckPassword is a bcrypt verifier.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// GenID creates a 22-char URL-safe, crypto-random identifier (no padding).
func GenID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, expiresDays int) *Signer {
	return &Signer{
		secret: []byte(secret),
		ttl:    time.Duration(expiresDays) * 24 * time.Hour,
		now:    time.Now,
	}
}

// Sign creates a token with id/username and the configured expiry.
func (s *Signer) Sign(id, username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Parse verifies a token and returns its claims.
func (s *Signer) Parse(tokenStr string) (Claims, error) {
	claims, err := s.verify(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" || IsAnon(id) {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ID: id, Username: username}, nil
}

// AnonPrefix marks guest identities. GenID output never contains ':', so a guest id
// cannot equal a user id.
const AnonPrefix = "anon:"

// IsAnon reports whether id is a guest identity.
func IsAnon(id string) bool { return strings.HasPrefix(id, AnonPrefix) && len(id) > len(AnonPrefix) }

// MintAnon creates a fresh guest identity and the signed token that carries it.
func (s *Signer) MintAnon() (id, token string, err error) {
	id = AnonPrefix + GenID()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"anon": id,
		"iat":  s.now().Unix(),
	})
	token, err = t.SignedString(s.secret)
	return id, token, err
}

// ParseAnon verifies a guest token and returns the identity it carries.
func (s *Signer) ParseAnon(tokenStr string) (string, error) {
	claims, err := s.verify(tokenStr)
	if err != nil {
		return "", err
	}
	id, _ := claims["anon"].(string)
	if !IsAnon(id) {
		return "", ErrInvalidToken
	}
	return id, nil
}

func (s *Signer) verify(tokenStr string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func BearerOrCookie(r *http.Request, cookieName string) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
