package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taquilla-cli/model"
	"taquilla-cli/store"
)

// ErrNotAuthenticated means no valid login is available.
var ErrNotAuthenticated = errors.New("inicia sesión para continuar")

// Provider exposes the current login to the rest of the client.
type Provider interface {
	CurrentUser() (model.User, bool)
	AuthToken() string
}

// Claims are the fields read from a bearer token. The signature is not
// verified; the backend does that.
type Claims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the claims of a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("empty token")
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}

	var claims Claims
	for _, key := range []string{"id_usuario", "id", "sub"} {
		if id := claimString(mapClaims[key]); id != "" {
			claims.UserID = id
			break
		}
	}
	claims.Username = claimString(mapClaims["username"])
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func claimString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

// FileProvider keeps the login in the user's config directory.
type FileProvider struct {
	mu  sync.Mutex
	now func() time.Time
}

func NewFileProvider() *FileProvider {
	return &FileProvider{now: time.Now}
}

func (p *FileProvider) load() (store.Session, bool) {
	saved, ok, err := store.LoadSession()
	if err != nil || !ok {
		return store.Session{}, false
	}
	if claims, err := ParseClaims(saved.Token); err == nil {
		if claims.Expired(p.now()) {
			return store.Session{}, false
		}
		if saved.User.ID == "" {
			saved.User.ID = claims.UserID
		}
		if saved.User.Username == "" {
			saved.User.Username = claims.Username
		}
	}
	return saved, true
}

func (p *FileProvider) CurrentUser() (model.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	saved, ok := p.load()
	if !ok || saved.User.ID == "" {
		return model.User{}, false
	}
	return saved.User, true
}

func (p *FileProvider) AuthToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	saved, ok := p.load()
	if !ok {
		return ""
	}
	return saved.Token
}

// Save persists a successful login.
func (p *FileProvider) Save(res model.LoginResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return store.SaveSession(store.Session{Token: res.Token, User: res.User, SavedAt: p.now()})
}

func (p *FileProvider) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return store.ClearSession()
}

// Memory is a fixed in-process login.
type Memory struct {
	User  model.User
	Token string
}

func (m Memory) CurrentUser() (model.User, bool) {
	return m.User, m.User.ID != ""
}

func (m Memory) AuthToken() string {
	return m.Token
}
