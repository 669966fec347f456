package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"subtrack/internal/token"
	"subtrack/internal/user"
	"subtrack/pkg/hash"
)

type UserRepository interface {
	Create(context.Context, *user.User) error
	GetByID(context.Context, int64) (*user.User, error)
	GetByEmail(context.Context, string) (*user.User, error)
	GetByUsername(context.Context, string) (*user.User, error)
	Update(context.Context, *user.User) error
}

type TokenRepository interface {
	Save(context.Context, *token.Token) error
	GetByToken(context.Context, string, token.Type) (*token.Token, error)
	DeleteByToken(context.Context, string) error
	DeleteByUser(context.Context, int64) error
}

// AccessTokenIssuer выдаёт короткоживущий access-токен (pkg/jwt.Manager).
type AccessTokenIssuer interface {
	Generate(userID int64, email string) (string, error)
}

type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

type Session struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
}

type Options struct {
	FrontendURL string
	RefreshTTL  time.Duration
}

type UserService struct {
	repo   UserRepository
	tokens TokenRepository
	access AccessTokenIssuer
	mailer PasswordResetSender
	opts   Options
	logger *zap.Logger
}

func NewUserService(repo UserRepository, tokens TokenRepository, access AccessTokenIssuer, mailer PasswordResetSender, opts Options, logger *zap.Logger) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		access: access,
		mailer: mailer,
		opts:   opts,
		logger: logger,
	}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, user.ErrUserExists
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrUserExists
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Username:           username,
		Email:              email,
		Password:           hashed,
		Currency:           user.DefaultCurrency,
		ReminderDays:       user.DefaultReminderDays,
		EmailNotifications: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.repo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrInvalidCreds
		}
		return nil, err
	}
	if !hash.CheckPassword(u.Password, password) {
		return nil, user.ErrInvalidCreds
	}
	if u.Deactivated {
		return nil, user.ErrDeactivated
	}

	return s.newSession(ctx, u)
}

// Refresh обменивает refresh-токен на новую пару; старый токен удаляется.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	t, err := s.tokens.GetByToken(ctx, refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	if t.Expired(time.Now()) {
		return nil, token.ErrExpiredToken
	}

	u, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	if u.Deactivated {
		return nil, user.ErrDeactivated
	}

	return s.newSession(ctx, u)
}

func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.DeleteByToken(ctx, refreshToken)
}

func (s *UserService) newSession(ctx context.Context, u *user.User) (*Session, error) {
	access, err := s.access.Generate(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := token.NewRefreshToken(u.ID, s.opts.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.Save(ctx, refresh); err != nil {
		return nil, err
	}

	return &Session{User: u, AccessToken: access, RefreshToken: refresh.Token}, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, name, email string) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && email != u.Email {
		other, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, user.ErrEmailInUse
		case err != nil && !errors.Is(err, user.ErrNotFound):
			return nil, err
		}
		u.Email = email
	}
	u.Name = strings.TrimSpace(name)

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateSettings применяет только переданные поля.
func (s *UserService) UpdateSettings(ctx context.Context, id int64, in user.Settings) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if !user.IsCurrency(code) {
			return nil, fmt.Errorf("%w: unsupported currency %q", user.ErrInvalidSettings, *in.Currency)
		}
		u.Currency = code
	}
	if in.ReminderDays != nil {
		if *in.ReminderDays < 0 || *in.ReminderDays > user.MaxReminderDays {
			return nil, fmt.Errorf("%w: reminder_days must be between 0 and %d", user.ErrInvalidSettings, user.MaxReminderDays)
		}
		u.ReminderDays = *in.ReminderDays
	}
	if in.EmailNotifications != nil {
		u.EmailNotifications = *in.EmailNotifications
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(u.Password, current) {
		return user.ErrWrongPassword
	}

	return s.setPassword(ctx, u, next)
}

func (s *UserService) Deactivate(ctx context.Context, id int64) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Deactivated = true
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	if err := s.tokens.DeleteByUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deactivated", zap.Int64("user_id", id))
	return nil
}

// ForgotPassword не сообщает, существует ли email: неизвестный адрес молча игнорируется.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	t, err := token.NewResetToken(u.ID)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.tokens.Save(ctx, t); err != nil {
		return err
	}

	link := strings.TrimRight(s.opts.FrontendURL, "/") + "/auth/reset-password/" + t.Token
	if err := s.mailer.SendPasswordReset(ctx, u.Email, displayName(u), link); err != nil {
		s.logger.Error("failed to send password reset email", zap.Int64("user_id", u.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, resetToken, password string) error {
	t, err := s.tokens.GetByToken(ctx, resetToken, token.TypeReset)
	if err != nil {
		return err
	}
	if err := s.tokens.DeleteByToken(ctx, resetToken); err != nil {
		return err
	}
	if t.Expired(time.Now()) {
		return token.ErrExpiredToken
	}

	u, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u, password)
}

// setPassword меняет хэш и отзывает все выданные токены пользователя.
func (s *UserService) setPassword(ctx context.Context, u *user.User, password string) error {
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Password = hashed
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	return s.tokens.DeleteByUser(ctx, u.ID)
}

func displayName(u *user.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
