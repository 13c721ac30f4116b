package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
}

func ValidRole(role string) bool {
	return role == "student" || role == "teacher" || role == "admin"
}

// UserStore is the dev identity table behind local login.
type UserStore struct{ db *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) FindByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// Upsert creates the user, or updates role and password of an existing
// username. An empty password keeps the stored hash.
func (s *UserStore) Upsert(ctx context.Context, username, password, role string) (User, error) {
	if role == "" {
		role = "student"
	}
	if !ValidRole(role) {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	var phash string
	if password != "" {
		h, err := HashPassword(password)
		if err != nil {
			return User{}, err
		}
		phash = h
	}

	existing, err := s.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if phash == "" {
			phash = existing.PasswordHash
		}
		_, err = s.db.ExecContext(ctx, `UPDATE users SET role=$1, password_hash=$2 WHERE id=$3`,
			role, phash, existing.ID)
		existing.Role, existing.PasswordHash = role, phash
		return existing, err
	case errors.Is(err, ErrUserNotFound):
		if phash == "" {
			return User{}, errors.New("password required for new user: " + username)
		}
		u := User{ID: uuid.NewString(), Username: username, PasswordHash: phash, Role: role}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
			u.ID, u.Username, u.PasswordHash, u.Role, time.Now().Unix())
		return u, err
	default:
		return User{}, err
	}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
