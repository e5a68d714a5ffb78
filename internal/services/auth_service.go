package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eshop/internal/metrics"
	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig configures token issuance and password hashing.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Claims is the payload of an issued token.
type Claims struct {
	UserID string      `json:"id"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// RegisterInput is the payload of a new account.
type RegisterInput struct {
	Name     string         `json:"name" validate:"required,min=2,max=50"`
	Email    string         `json:"email" validate:"required,email,max=255"`
	Password string         `json:"password" validate:"required,min=6,max=72"`
	Phone    string         `json:"phone" validate:"omitempty,max=30"`
	Address  models.Address `json:"address"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is a partial profile update; nil fields are left unchanged.
type ProfileInput struct {
	Name    *string         `json:"name" validate:"omitempty,min=2,max=50"`
	Email   *string         `json:"email" validate:"omitempty,email,max=255"`
	Phone   *string         `json:"phone" validate:"omitempty,max=30"`
	Address *models.Address `json:"address"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService handles registration, login, token verification and profiles.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
	log        logrus.FieldLogger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, cfg AuthConfig, log logrus.FieldLogger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(cfg.Secret),
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
		log:        log,
	}
}

// Register creates a user with the "user" role and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := s.Provision(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Provision creates an account with an explicit role. It is not reachable over
// HTTP; the seed command uses it to create administrators.
func (s *AuthService) Provision(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, NewValidationError("role", "Role must be one of user, admin")
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     role,
		Phone:    in.Phone,
		Address:  in.Address,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.RecordLogin(false)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	metrics.RecordLogin(true)
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate verifies a bearer token and resolves it to the identity as
// currently stored, so role changes and deletions apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		s.log.WithError(err).Debug("Token rejected")
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	return &Identity{ID: user.ID, Role: user.Role, Name: user.Name}, nil
}

// Authorize checks that identity holds role.
func (s *AuthService) Authorize(identity *Identity, role models.Role) error {
	return Authorize(identity, role)
}

// Me returns the stored record of the calling user.
func (s *AuthService) Me(ctx context.Context, identity *Identity) (*models.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	return s.getUser(ctx, identity.ID)
}

// UpdateProfile applies the supplied profile fields and returns the stored result.
func (s *AuthService) UpdateProfile(ctx context.Context, identity *Identity, in ProfileInput) (*models.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := models.NormalizeEmail(*in.Email)
		in.Email = &email
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil && *in.Email != user.Email {
		if _, err := s.userRepo.GetByEmail(ctx, *in.Email); err == nil {
			return nil, emailTaken()
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
		user.Email = *in.Email
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Address = *in.Address
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, emailTaken()
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("Profile updated")
	return s.getUser(ctx, user.ID)
}

func (s *AuthService) getUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("token claims are invalid")
	}
	return claims, nil
}

func emailTaken() *ValidationError {
	return NewValidationError("email", "Email is already registered")
}
