package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sometime-community/forum-auth/internal/auth"
	"github.com/sometime-community/forum-auth/internal/config"
	"github.com/sometime-community/forum-auth/internal/domain"
	"github.com/sometime-community/forum-auth/internal/events"
	"github.com/sometime-community/forum-auth/internal/repository"
)

// SignupInput carries the profile of a new member.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	NickName string
	Birth    *time.Time
	Gender   domain.Gender
}

// AuthService coordinates signup, login and the refresh token rotation protocol.
type AuthService struct {
	users      repository.UserRepository
	ledger     repository.RefreshTokenLedger
	tokens     *auth.TokenCodec
	passwords  *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Users      repository.UserRepository
	Ledger     repository.RefreshTokenLedger
	Tokens     *auth.TokenCodec
	Passwords  *auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	passwords := deps.Passwords
	if passwords == nil {
		passwords = auth.NewPasswordHasher(cfg.BcryptCost)
	}
	return &AuthService{
		users:      deps.Users,
		ledger:     deps.Ledger,
		tokens:     deps.Tokens,
		passwords:  passwords,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		accessTTL:  cfg.AccessTTL(),
		refreshTTL: cfg.RefreshTTL(),
	}
}

// Signup registers a member with the user authority.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if err := s.ensureAvailable(ctx, in.Email, in.NickName); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		NickName:     in.NickName,
		Birth:        in.Birth,
		Gender:       in.Gender,
		Authority:    domain.AuthorityUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if strings.Contains(err.Error(), repository.UsersNickNameKey) {
				return nil, domain.ErrNickNameTaken
			}
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserSignedUp, user.ID, user.Email, nil)
	return user, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, email, nickName string) error {
	ok, err := s.IsEmailAvailable(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrEmailTaken
	}
	ok, err = s.IsNickNameAvailable(ctx, nickName)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNickNameTaken
	}
	return nil
}

// IsEmailAvailable reports whether no member uses the address yet.
func (s *AuthService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	return available(s.users.GetByEmail(ctx, email))
}

// IsNickNameAvailable reports whether no member uses the nickname yet.
func (s *AuthService) IsNickNameAvailable(ctx context.Context, nickName string) (bool, error) {
	return available(s.users.GetByNickName(ctx, nickName))
}

func available(_ *domain.User, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	default:
		return false, err
	}
}

// Login verifies the credential and opens the subject's single session,
// replacing any earlier one.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TokenPair{}, domain.ErrInvalidCredential
		}
		return domain.TokenPair{}, err
	}

	ok, err := s.passwords.Matches(user.PasswordHash, password)
	if err != nil {
		s.logger.Warn("password hash unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return domain.TokenPair{}, domain.ErrInvalidCredential
	}
	if !ok {
		return domain.TokenPair{}, domain.ErrInvalidCredential
	}

	pair, err := s.tokens.Issue(user.ID, user.Authority, s.accessTTL, s.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.ledger.Put(ctx, refreshRecord(user.ID, pair)); err != nil {
		return domain.TokenPair{}, err
	}

	s.publish(ctx, events.EventUserLoggedIn, user.ID, user.Email, nil)
	return pair, nil
}

// Reissue rotates the session: the refresh token must be live and still held
// by the ledger, the access token only needs to be intact. Exactly one of
// several concurrent reissues with the same input succeeds.
func (s *AuthService) Reissue(ctx context.Context, accessToken, refreshToken string) (domain.TokenPair, error) {
	refreshClaims, err := s.tokens.Parse(refreshToken)
	if err != nil || refreshClaims.Kind != domain.TokenKindRefresh || !refreshClaims.LiveAt(s.tokens.Now()) {
		return domain.TokenPair{}, domain.ErrRefreshTokenInvalid
	}

	accessClaims, err := s.tokens.Parse(accessToken)
	if err != nil || accessClaims.Kind != domain.TokenKindAccess {
		return domain.TokenPair{}, domain.ErrAccessTokenMalformed
	}

	subjectID := accessClaims.SubjectID
	if refreshClaims.SubjectID != subjectID {
		s.conflict(ctx, subjectID, "subject mismatch")
		return domain.TokenPair{}, domain.ErrSessionMismatch
	}

	current, err := s.ledger.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TokenPair{}, domain.ErrSessionNotFound
		}
		return domain.TokenPair{}, err
	}
	if current.Token != refreshToken {
		s.conflict(ctx, subjectID, "superseded")
		return domain.TokenPair{}, domain.ErrSessionMismatch
	}

	pair, err := s.tokens.Issue(subjectID, accessClaims.Authority, s.accessTTL, s.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	rotated, err := s.ledger.Rotate(ctx, refreshToken, refreshRecord(subjectID, pair))
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !rotated {
		s.conflict(ctx, subjectID, "lost rotation race")
		return domain.TokenPair{}, domain.ErrSessionMismatch
	}

	s.publish(ctx, events.EventTokenReissued, subjectID, "", nil)
	return pair, nil
}

// Logout closes the subject's session. The access token may be expired.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Parse(accessToken)
	if err != nil || claims.Kind != domain.TokenKindAccess {
		return domain.ErrAccessTokenMalformed
	}
	if err := s.ledger.Remove(ctx, claims.SubjectID); err != nil {
		return err
	}
	s.publish(ctx, events.EventUserLoggedOut, claims.SubjectID, "", nil)
	return nil
}

// ResetPassword stores a new password hash for the member owning email.
// TODO: require a verified code once the reset page submits one.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	s.publish(ctx, events.EventPasswordReset, user.ID, user.Email, nil)
	return nil
}

// Profile returns the member behind a subject id.
func (s *AuthService) Profile(ctx context.Context, subjectID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) conflict(ctx context.Context, subjectID, reason string) {
	s.logger.Info("refresh rejected", zap.String("subject_id", subjectID), zap.String("reason", reason))
	s.publish(ctx, events.EventSessionConflict, subjectID, "", events.SessionConflictPayload{Reason: reason})
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subjectID, email string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	ev := events.New(eventType, s.tokens.Now())
	ev.SubjectID = subjectID
	ev.Email = email
	ev.Payload = payload
	if err := s.dispatcher.Publish(ctx, ev); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func refreshRecord(subjectID string, pair domain.TokenPair) domain.RefreshRecord {
	return domain.RefreshRecord{
		SubjectID: subjectID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshTokenExpiresAt,
	}
}
