package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/repository"
)

// Interface to create or compare reseller password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Manager that issues and validates token pairs
type TokenManager interface {
	GeneratePair(ctx context.Context, reseller models.Reseller) (models.TokenPair, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	ParseAccess(ctx context.Context, access string) (resellerID uuid.UUID, err error)
}

type Config struct {
	// Hasher to use during registration or login
	// Default bcrypt hasher is used if not set
	Hasher PasswordHasher
}

type AuthService struct {
	token   TokenManager
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(cfg Config, token TokenManager, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	return &AuthService{
		token:   token,
		hasher:  hasher,
		storage: storage,
	}, nil
}

// Register creates the reseller account and provisions its zero-balance
// wallet in the same database transaction, then issues a token pair.
func (s *AuthService) Register(ctx context.Context, login string, password string) (models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	var reseller models.Reseller
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		reseller, err = st.Reseller().CreateReseller(ctx, login, hash)
		if err != nil {
			return err
		}

		_, err = st.Wallet().CreateWallet(ctx, reseller.ID)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, reseller)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, login string, password string) (models.TokenPair, error) {
	reseller, err := s.storage.Reseller().GetResellerByLogin(ctx, login)
	if err != nil {
		// Compare against an empty hash anyway so response time doesn't
		// leak whether the login exists
		_ = s.hasher.Compare("", password)
		return models.TokenPair{}, apperrors.ErrResellerNotFound
	}

	if err := s.hasher.Compare(reseller.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrResellerNotFound
	}

	pair, err := s.token.GeneratePair(ctx, reseller)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Refresh rotates the token pair: the refresh token is single use
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	reseller, err := s.storage.Reseller().GetResellerByID(ctx, token.ResellerID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, reseller)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Authenticate parses the access token and loads its reseller
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.Reseller, error) {
	resellerID, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return models.Reseller{}, err
	}

	return s.storage.Reseller().GetResellerByID(ctx, resellerID)
}
