package turso

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/skilltrail/skilltrail/internal/remote"
)

const sessionFile = "session.json"

// Auth authenticates against the users table and remembers the signed-in
// identity in a session file, so the CLI stays signed in across runs.
type Auth struct {
	db          *sql.DB
	sessionPath string
}

func newAuth(db *sql.DB, stateDir string) (*Auth, error) {
	if stateDir == "" {
		stateDir = "."
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Auth{db: db, sessionPath: filepath.Join(stateDir, sessionFile)}, nil
}

// CurrentUser implements remote.Auth. Returns (nil, nil) when signed out.
func (a *Auth) CurrentUser(context.Context) (*remote.User, error) {
	data, err := os.ReadFile(a.sessionPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var u remote.User
	if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
		// Corrupt session counts as signed out, not an error.
		return nil, nil
	}
	return &u, nil
}

// SignUp implements remote.Auth.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*remote.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := newUserID()
	if err != nil {
		return nil, err
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, string(hash), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, remote.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u := &remote.User{ID: id, Email: email}
	if err := a.saveSession(u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn implements remote.Auth.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*remote.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := a.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ?`, email)

	var id, hash string
	err := row.Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return nil, remote.ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, remote.ErrBadCredentials
	}

	u := &remote.User{ID: id, Email: email}
	if err := a.saveSession(u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignOut implements remote.Auth.
func (a *Auth) SignOut(context.Context) error {
	err := os.Remove(a.sessionPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (a *Auth) saveSession(u *remote.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(a.sessionPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func newUserID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
