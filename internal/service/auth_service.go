package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wayfare/config"
	"wayfare/internal/auth"
	"wayfare/internal/domain"
	"wayfare/internal/models"
	"wayfare/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
	ErrInvalidCreds   = errors.New("invalid email or password")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type AuthService struct {
	cfg      *config.Config
	userRepo UserStore
}

func NewAuthService(cfg *config.Config, userRepo UserStore) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) tokens(u *models.User) (string, string, error) {
	pair, err := auth.IssuePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return "", "", err
	}
	return pair.Access, pair.Refresh, nil
}

func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.userRepo.GetByEmail(ctx, email)
	taken, err := exists(err)
	if err != nil {
		return nil, "", "", err
	}
	if taken {
		return nil, "", "", ErrEmailExists
	}
	_, err = s.userRepo.GetByUsername(ctx, username)
	taken, err = exists(err)
	if err != nil {
		return nil, "", "", err
	}
	if taken {
		return nil, "", "", ErrUsernameExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", "", err
	}
	access, refresh, err := s.tokens(u)
	return u, access, refresh, err
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if u.PasswordHash == "" {
		return nil, "", "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	access, refresh, err := s.tokens(u)
	return u, access, refresh, err
}

// LoginWithGoogle finds the user by Google ID, links an existing account
// with the same email, or creates a new USER account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, googleID, email, name, avatarURL string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(ctx, googleID)
	if err == nil {
		access, refresh, err := s.tokens(u)
		return u, access, refresh, false, err
	}
	if !store.IsNotFound(err) {
		return nil, "", "", false, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil && !store.IsNotFound(err) {
		return nil, "", "", false, err
	}
	if existing != nil {
		gid := googleID
		existing.GoogleID = &gid
		if avatarURL != "" {
			existing.AvatarURL = avatarURL
		}
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, "", "", false, err
		}
		access, refresh, err := s.tokens(existing)
		return existing, access, refresh, false, err
	}
	gid := googleID
	username := strings.Split(email, "@")[0]
	if name != "" {
		username = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	}
	if username == "" {
		username = fmt.Sprintf("user%d", time.Now().UnixNano()%100000)
	}
	u = &models.User{
		Email:     strings.ToLower(email),
		Username:  username,
		GoogleID:  &gid,
		Role:      domain.RoleUser,
		AvatarURL: avatarURL,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", "", false, err
	}
	access, refresh, err := s.tokens(u)
	return u, access, refresh, true, err
}

// ChangePassword requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrInvalidCreds
	}
	if u.PasswordHash == "" {
		return errors.New("account uses Google sign-in; set a password first")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, u)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return s.tokens(u)
}
