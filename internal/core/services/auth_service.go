package services

import (
	"context"
	"errors"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/config"
	"coverhub/internal/core/domain"
	"coverhub/internal/pkg/jwt"
	"coverhub/internal/pkg/logger"
	"coverhub/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrLicenseAlreadyUsed = errors.New("license number already registered")
	ErrIDNumberUsed       = errors.New("id number already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
)

// AuthService handles authentication business logic
type AuthService struct {
	db               *gorm.DB
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	brokerRepo       *repositories.BrokerRepository
	managerRepo      *repositories.ManagerRepository
	holderRepo       *repositories.PolicyHolderRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	brokerRepo *repositories.BrokerRepository,
	managerRepo *repositories.ManagerRepository,
	holderRepo *repositories.PolicyHolderRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:               db,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		brokerRepo:       brokerRepo,
		managerRepo:      managerRepo,
		holderRepo:       holderRepo,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input. The party fields required
// depend on the role: brokers carry a license, policyholders an ID number.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=BROKER MANAGER POLICYHOLDER"`

	// Broker fields
	LicenseNumber string `json:"license_number,omitempty"`
	AgencyName    string `json:"agency_name,omitempty"`

	// Manager fields
	Department string `json:"department,omitempty"`

	// Policyholder fields
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IDNumber  string `json:"id_number,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	PartyID      uint                 `json:"party_id"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a user plus the matching party row for the role, in one
// transaction
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	role := domain.Role(input.Role)
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, ErrInvalidRole
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    input.Email,
		Username: input.Username,
		Password: hashedPassword,
		Role:     input.Role,
		IsActive: true,
	}

	var partyID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		switch role {
		case domain.RoleBroker:
			broker := &models.Broker{
				UserID:        user.ID,
				LicenseNumber: input.LicenseNumber,
				AgencyName:    input.AgencyName,
				Phone:         input.Phone,
				IsActive:      true,
			}
			if err := tx.Create(broker).Error; err != nil {
				return err
			}
			partyID = broker.ID
		case domain.RoleManager:
			manager := &models.Manager{
				UserID:     user.ID,
				Department: input.Department,
				IsActive:   true,
			}
			if err := tx.Create(manager).Error; err != nil {
				return err
			}
			partyID = manager.ID
		case domain.RolePolicyHolder:
			holder := &models.PolicyHolder{
				UserID:    &user.ID,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				IDNumber:  input.IDNumber,
				Email:     input.Email,
				Phone:     input.Phone,
			}
			if err := tx.Create(holder).Error; err != nil {
				return err
			}
			partyID = holder.ID
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if role == domain.RoleBroker {
				return nil, ErrLicenseAlreadyUsed
			}
			return nil, ErrIDNumberUsed
		}
		return nil, err
	}

	tokens, err := s.generateTokens(user, partyID)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	logger.Infof("User registered: %s (%s)", user.Username, user.Role)

	return &AuthResponse{
		User:         user.ToResponse(),
		PartyID:      partyID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	partyID, err := s.partyID(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(user, partyID)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	logger.Infof("User logged in: %s", user.Username)

	return &AuthResponse{
		User:         user.ToResponse(),
		PartyID:      partyID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// RefreshToken refreshes the access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	tokenHash := password.HashToken(refreshToken)

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Token rotation: the old refresh token dies with this exchange
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	partyID, err := s.partyID(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(user, partyID)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		PartyID:      partyID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash)
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// partyID resolves the role-specific row id carried in the JWT claims.
// Admins have no party row and carry 0.
func (s *AuthService) partyID(ctx context.Context, user *models.User) (uint, error) {
	switch domain.Role(user.Role) {
	case domain.RoleBroker:
		broker, err := s.brokerRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return broker.ID, nil
	case domain.RoleManager:
		manager, err := s.managerRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return manager.ID, nil
	case domain.RolePolicyHolder:
		holder, err := s.holderRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return holder.ID, nil
	}
	return 0, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User, partyID uint) (*domain.TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		partyID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)
	expiresAt := jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays)

	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}

	return s.refreshTokenRepo.Create(ctx, token)
}
