package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lectoria/lectoria/internal/shared"
	"github.com/lectoria/lectoria/internal/token"
	"github.com/lectoria/lectoria/internal/users"
)

// UserSource provides the account lookups the auth flow needs.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// Service wraps authentication business rules.
type Service struct {
	source UserSource
	codec  *token.Codec
}

// NewService constructs a new Service.
func NewService(source UserSource, codec *token.Codec) *Service {
	return &Service{source: source, codec: codec}
}

// Login validates email/password credentials and issues a token pair.
// Unknown accounts, blocked accounts and wrong passwords all surface the same
// invalid-credentials error.
func (s *Service) Login(ctx context.Context, email, password string) (token.Pair, *users.User, error) {
	// Accounts are stored with lowercased emails; accept any casing here.
	user, err := s.source.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return token.Pair{}, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return token.Pair{}, nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return token.Pair{}, nil, shared.ErrInvalidCredentials
	}
	pair, err := s.codec.IssuePair(user.ID)
	if err != nil {
		return token.Pair{}, nil, err
	}
	_ = s.source.TouchLastLogin(ctx, user.ID)
	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The account must
// still exist and be active at exchange time.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	subject, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		return token.Pair{}, shared.ErrUnauthenticated
	}
	user, err := s.source.GetByID(ctx, subject.ID)
	if err != nil || !user.IsActive {
		return token.Pair{}, shared.ErrUnauthenticated
	}
	return s.codec.IssuePair(user.ID)
}
