package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studentintake/internal/model"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type AuthService struct {
	db   *gorm.DB
	cost int
}

func NewAuthService(db *gorm.DB, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, cost: cost}
}

// Register creates a user with a bcrypt hash of password. Uniqueness comes
// from the email index; there is no read before the insert, since lock
// upgrades between concurrent SQLite writers fail with "database is locked".
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	user := &model.User{Email: email, Password: string(hashed)}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, persistenceError("create user", err)
	}
	return user, nil
}

// Authenticate returns the user whose stored hash matches password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownEmail
	}
	if err != nil {
		return nil, persistenceError("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadPassword
	}
	return &user, nil
}

func validateCredentials(email, password string) error {
	switch {
	case email == "":
		return &ValidationError{Field: "email", Reason: "is required"}
	case !strings.Contains(email, "@"):
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	case password == "":
		return &ValidationError{Field: "password", Reason: "is required"}
	case len(password) > maxPasswordBytes:
		return &ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	return nil
}
