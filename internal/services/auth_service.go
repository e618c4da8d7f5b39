package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-ledger/internal/config"
	"finance-ledger/internal/dto"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountLocked       = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo             repositories.UserRepositoryInterface
	refreshTokenRepo     repositories.RefreshTokenRepositoryInterface
	auditRepo            repositories.AuditLogRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	passwordService      PasswordServiceInterface
	tokenService         TokenServiceInterface
	metrics              MetricsRecorderInterface
	maxFailedAttempts    int
	logger               *logrus.Entry
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	metrics MetricsRecorderInterface,
	security config.SecurityConfig,
	logger logrus.FieldLogger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:             userRepo,
		refreshTokenRepo:     refreshTokenRepo,
		auditRepo:            auditRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		passwordService:      passwordService,
		tokenService:         tokenService,
		metrics:              metrics,
		maxFailedAttempts:    security.MaxFailedAttempts,
		logger:               logging.WithComponent(logger, "auth"),
	}
}

// Register creates a user together with a zero-balance account
func (s *AuthService) Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, *models.Account, error) {
	email := models.NormalizeEmail(req.Email)

	existingUser, err := s.userRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if existingUser != nil {
		s.auditFailedRegistration(email, ipAddress, userAgent, "email_already_exists")
		return nil, nil, ErrUserAlreadyExists
	}

	hashedPassword, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
	}
	account := &models.Account{Balance: decimal.Zero}

	if err := s.userRepo.CreateWithAccount(user, account); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			s.auditFailedRegistration(email, ipAddress, userAgent, "email_already_exists")
			return nil, nil, ErrUserAlreadyExists
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditSuccessfulRegistration(user, ipAddress, userAgent)
	s.createAuditLog(&user.ID, models.AuditActionAccountCreated, models.AuditResourceAccount, account.ID.String(), ipAddress, userAgent, nil)

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID.String(),
		"account_id": account.ID.String(),
	}).Info("user registered")

	return user, account, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	email := models.NormalizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.auditFailedLogin(email, ipAddress, userAgent, "user_not_found")
			s.recordAttempt("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked() {
		s.auditFailedLogin(email, ipAddress, userAgent, "account_locked")
		s.recordAttempt("locked")
		return nil, ErrAccountLocked
	}

	if !s.passwordService.ComparePassword(req.Password, user.PasswordHash) {
		locked := user.IncrementFailedAttempts(s.maxFailedAttempts)
		if err := s.userRepo.UpdateFailedLoginAttempts(user); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID.String()).Error("failed to update login attempts")
		}

		if locked {
			s.auditAccountLocked(user, ipAddress, userAgent)
		}

		s.auditFailedLogin(email, ipAddress, userAgent, "invalid_password")
		s.recordAttempt("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	user.RecordLogin()
	if err := s.userRepo.RecordSuccessfulLogin(user.ID, *user.LastLoginAt); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID.String()).Warn("failed to record login")
	}

	tokens, err := s.generateTokens(user, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.auditSuccessfulLogin(user, ipAddress, userAgent)
	s.recordAttempt("success")

	return tokens, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The presented
// token is revoked and cannot be used again.
func (s *AuthService) RefreshTokens(refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	claims, err := s.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.auditFailedTokenRefresh("", ipAddress, userAgent, "invalid_token")
		return nil, ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		if !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, fmt.Errorf("failed to get refresh token: %w", err)
		}
		s.auditFailedTokenRefresh(claims.UserID, ipAddress, userAgent, "token_not_found")
		return nil, ErrInvalidRefreshToken
	}

	if storedToken.UserID != userID || !storedToken.IsUsable(time.Now().UTC()) {
		s.auditFailedTokenRefresh(claims.UserID, ipAddress, userAgent, "token_expired_or_revoked")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	tokens, err := s.generateTokens(user, storedToken)
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			s.auditFailedTokenRefresh(claims.UserID, ipAddress, userAgent, "token_already_rotated")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to generate new tokens: %w", err)
	}

	s.auditSuccessfulTokenRefresh(user, ipAddress, userAgent)

	return tokens, nil
}

// Logout blacklists the access token. The given refresh token is revoked, or
// every refresh token of the user when none is given.
func (s *AuthService) Logout(accessToken, refreshToken, ipAddress, userAgent string) error {
	claims, err := s.tokenService.ValidateAccessToken(accessToken)
	if err != nil {
		// expired tokens are blacklisted too so they cannot be replayed
		jti, _ := s.tokenService.GetJTI(accessToken)
		if jti != "" {
			if err := s.blacklistToken(jti, uuid.Nil, time.Now().UTC().Add(24*time.Hour)); err != nil {
				s.logger.WithError(err).WithField("jti", jti).Error("failed to blacklist expired token")
			}
		}
		return nil
	}

	userID, _ := uuid.Parse(claims.UserID)

	expiry, err := s.tokenService.GetTokenExpiry(accessToken)
	if err != nil {
		expiry = time.Now().UTC().Add(24 * time.Hour)
	}
	if err := s.blacklistToken(claims.ID, userID, expiry); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.revokeRefreshTokens(userID, refreshToken)
	s.auditLogout(userID, ipAddress, userAgent)

	return nil
}

func (s *AuthService) revokeRefreshTokens(userID uuid.UUID, refreshToken string) {
	if refreshToken == "" {
		if err := s.refreshTokenRepo.RevokeAllForUser(userID); err != nil {
			s.logger.WithError(err).WithField("user_id", userID.String()).Warn("failed to revoke refresh tokens")
		}
		return
	}

	stored, err := s.refreshTokenRepo.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		if !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			s.logger.WithError(err).WithField("user_id", userID.String()).Warn("failed to look up refresh token")
		}
		return
	}

	if stored.UserID != userID {
		return
	}

	if err := s.refreshTokenRepo.Revoke(stored.ID); err != nil && !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
		s.logger.WithError(err).WithField("token_id", stored.ID.String()).Warn("failed to revoke refresh token")
	}
}

// generateTokens issues a token pair. When previous is set the new refresh
// token replaces it atomically.
func (s *AuthService) generateTokens(user *models.User, previous *models.RefreshToken) (*dto.TokenResponse, error) {
	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshExpiresAt, err := s.tokenService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: refreshExpiresAt,
	}

	if previous != nil {
		err = s.refreshTokenRepo.Rotate(previous.ID, refreshTokenModel)
	} else {
		err = s.refreshTokenRepo.Create(refreshTokenModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *AuthService) blacklistToken(jti string, userID uuid.UUID, expiresAt time.Time) error {
	token := &models.BlacklistedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	return s.blacklistedTokenRepo.Create(token)
}

func (s *AuthService) recordAttempt(result string) {
	s.metrics.IncrementCounter(MetricAuthAttempt, map[string]string{"result": result})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Audit logging methods
func (s *AuthService) auditSuccessfulRegistration(user *models.User, ipAddress, userAgent string) {
	s.createAuditLog(&user.ID, models.AuditActionRegister, models.AuditResourceUser, user.ID.String(), ipAddress, userAgent, nil)
}

func (s *AuthService) auditFailedRegistration(email, ipAddress, userAgent, reason string) {
	metadata := map[string]interface{}{
		"email":  email,
		"reason": reason,
	}
	s.createAuditLog(nil, models.AuditActionRegister, models.AuditResourceUser, "", ipAddress, userAgent, metadata)
}

func (s *AuthService) auditSuccessfulLogin(user *models.User, ipAddress, userAgent string) {
	s.createAuditLog(&user.ID, models.AuditActionLogin, models.AuditResourceUser, user.ID.String(), ipAddress, userAgent, nil)
}

func (s *AuthService) auditFailedLogin(email, ipAddress, userAgent, reason string) {
	metadata := map[string]interface{}{
		"email":  email,
		"reason": reason,
	}
	s.createAuditLog(nil, models.AuditActionFailedLogin, models.AuditResourceUser, "", ipAddress, userAgent, metadata)
}

func (s *AuthService) auditAccountLocked(user *models.User, ipAddress, userAgent string) {
	s.createAuditLog(&user.ID, models.AuditActionAccountLocked, models.AuditResourceUser, user.ID.String(), ipAddress, userAgent, nil)
}

func (s *AuthService) auditSuccessfulTokenRefresh(user *models.User, ipAddress, userAgent string) {
	s.createAuditLog(&user.ID, models.AuditActionTokenRefresh, models.AuditResourceUser, user.ID.String(), ipAddress, userAgent, nil)
}

func (s *AuthService) auditFailedTokenRefresh(userID, ipAddress, userAgent, reason string) {
	var uid *uuid.UUID
	if id, err := uuid.Parse(userID); err == nil {
		uid = &id
	}
	metadata := map[string]interface{}{
		"reason": reason,
	}
	s.createAuditLog(uid, models.AuditActionTokenRefresh, "token", "", ipAddress, userAgent, metadata)
}

func (s *AuthService) auditLogout(userID uuid.UUID, ipAddress, userAgent string) {
	s.createAuditLog(&userID, models.AuditActionLogout, models.AuditResourceUser, userID.String(), ipAddress, userAgent, nil)
}

func (s *AuthService) createAuditLog(userID *uuid.UUID, action, resource, resourceID, ipAddress, userAgent string, metadata map[string]interface{}) {
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Metadata:   metadata,
	}

	if err := s.auditRepo.Create(log); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"resource":    resource,
			"resource_id": resourceID,
		}).Error("failed to create audit log")
	}
}
