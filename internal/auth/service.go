package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, userID int64, role Role) error
}

type TokenStore interface {
	InsertToken(ctx context.Context, t Token) error
	ReplaceTokens(ctx context.Context, t Token) error
	TokenByID(ctx context.Context, id uuid.UUID) (Token, error)
	DeleteToken(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	Users  UserStore
	Tokens TokenStore
	Secret []byte
	TTL    time.Duration
	Cost   int
	Now    func() time.Time
	Log    logrus.FieldLogger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

// hash fails with ErrPasswordTooLong past bcrypt's 72 byte input limit.
func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return string(h), err
}

func (s *Service) Register(ctx context.Context, name, email, password string) (User, IssuedToken, error) {
	hash, err := s.hash(password)
	if err != nil {
		return User{}, IssuedToken{}, err
	}
	u := User{Name: name, Email: email, PasswordHash: hash, Role: RoleStudent}
	if err := s.Users.CreateUser(ctx, &u); err != nil {
		return User{}, IssuedToken{}, err
	}
	tok, t, err := s.issue(u.ID)
	if err != nil {
		return User{}, IssuedToken{}, err
	}
	if err := s.Tokens.InsertToken(ctx, t); err != nil {
		return User{}, IssuedToken{}, err
	}
	s.Log.WithField("user_id", u.ID).Info("user registered")
	return u, tok, nil
}

// Login verifies the credentials and issues a fresh token. Every token the
// user held before is revoked.
func (s *Service) Login(ctx context.Context, email, password string) (User, IssuedToken, error) {
	u, err := s.Users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, IssuedToken{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, IssuedToken{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, IssuedToken{}, ErrInvalidCredentials
	}
	tok, t, err := s.issue(u.ID)
	if err != nil {
		return User{}, IssuedToken{}, err
	}
	if err := s.Tokens.ReplaceTokens(ctx, t); err != nil {
		return User{}, IssuedToken{}, err
	}
	s.Log.WithField("user_id", u.ID).Info("user logged in")
	return u, tok, nil
}

func (s *Service) Authenticate(ctx context.Context, raw string) (Identity, error) {
	var c jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	tokenID, err := uuid.Parse(c.ID)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	t, err := s.Tokens.TokenByID(ctx, tokenID)
	if errors.Is(err, ErrTokenNotFound) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, err
	}
	if !s.now().Before(t.ExpiresAt) || strconv.FormatInt(t.UserID, 10) != c.Subject {
		return Identity{}, ErrUnauthorized
	}
	u, err := s.Users.UserByID(ctx, t.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: u.ID, Name: u.Name, Role: u.Role, TokenID: t.ID}, nil
}

func (s *Service) Logout(ctx context.Context, id Identity) error {
	return s.Tokens.DeleteToken(ctx, id.TokenID)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) { return s.Users.ListUsers(ctx) }

func (s *Service) Me(ctx context.Context, id Identity) (User, error) {
	return s.Users.UserByID(ctx, id.ID)
}

// EnsureOwner creates the owner account, or promotes an existing account
// with that email.
func (s *Service) EnsureOwner(ctx context.Context, name, email, password string) (User, error) {
	u, err := s.Users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role != RoleOwner {
			if err := s.Users.SetRole(ctx, u.ID, RoleOwner); err != nil {
				return User{}, err
			}
			u.Role = RoleOwner
		}
		return u, nil
	case !errors.Is(err, ErrUserNotFound):
		return User{}, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return User{}, err
	}
	u = User{Name: name, Email: email, PasswordHash: hash, Role: RoleOwner}
	if err := s.Users.CreateUser(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) issue(userID int64) (IssuedToken, Token, error) {
	now := s.now()
	t := Token{ID: uuid.New(), UserID: userID, ExpiresAt: now.Add(s.TTL)}
	claims := jwt.RegisteredClaims{
		ID:        t.ID.String(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return IssuedToken{}, Token{}, err
	}
	return IssuedToken{Plain: signed, ExpiresAt: t.ExpiresAt}, t, nil
}
