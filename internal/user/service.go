package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/CarSave/CarSave/internal/common/auth"
	"github.com/CarSave/CarSave/internal/common/config"
	"github.com/CarSave/CarSave/internal/common/errs"
	"github.com/CarSave/CarSave/internal/common/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen  = 6
	resetCodeDigits = 6
	resetCodeTTL    = 10 * time.Minute
)

// MailSender 发送找回密码验证码的邮件出口（mail.Mailer 实现）。
type MailSender interface {
	Send(to, subject, htmlBody string) error
}

// Service 账号域：微信登录、邮箱注册登录、改密、找回密码。
type Service struct {
	repo    *Repo
	session SessionProvider
	mailer  MailSender
	authCfg config.AuthConfig
	log     logger.Logger
	now     func() time.Time
}

func NewService(repo *Repo, session SessionProvider, mailer MailSender, authCfg config.AuthConfig, log logger.Logger) *Service {
	return &Service{
		repo:    repo,
		session: session,
		mailer:  mailer,
		authCfg: authCfg,
		log:     log,
		now:     time.Now,
	}
}

// TokenResult 登录成功后的 access token。
type TokenResult struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Service) tokenTTL() time.Duration {
	if s.authCfg.TTLHours > 0 {
		return time.Duration(s.authCfg.TTLHours) * time.Hour
	}
	return 24 * time.Hour
}

func (s *Service) issueToken(userID string) (TokenResult, error) {
	token, expiresAt, err := auth.GenerateAccessToken(s.authCfg, userID, s.tokenTTL())
	if err != nil {
		return TokenResult{}, errs.Internal("failed to issue token", err)
	}
	return TokenResult{UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

// WxLogin 小程序登录：code 换 openid，首次登录静默建号。
func (s *Service) WxLogin(ctx context.Context, code string) (TokenResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return TokenResult{}, errs.Validationf("code required")
	}
	if s.session == nil {
		return TokenResult{}, errs.Internal("wechat login not configured", nil)
	}

	openID, err := s.session.Code2Session(ctx, code)
	if err != nil {
		if s.log != nil {
			s.log.Errorf("jscode2session failed: %v", err)
		}
		return TokenResult{}, errs.Unauthorizedf("wechat login failed")
	}

	u, err := s.repo.FindByOpenID(ctx, openID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = &User{
			ID:       uuid.NewString(),
			OpenID:   &openID,
			Nickname: "微信用户",
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return TokenResult{}, errs.Internal("failed to create user", err)
		}
		if s.log != nil {
			s.log.Infof("wx user created id=%s", u.ID)
		}
	} else if err != nil {
		return TokenResult{}, errs.Internal("failed to find user", err)
	}

	return s.issueToken(u.ID)
}

// Register 邮箱注册，成功即登录。
func (s *Service) Register(ctx context.Context, email, password string) (TokenResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return TokenResult{}, err
	}
	if len(password) < minPasswordLen {
		return TokenResult{}, errs.Validationf("password must be at least %d characters", minPasswordLen)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return TokenResult{}, errs.Conflictf("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenResult{}, errs.Internal("failed to find user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return TokenResult{}, errs.Internal("failed to hash password", err)
	}

	u := &User{
		ID:       uuid.NewString(),
		Email:    &email,
		Password: string(hash),
		Nickname: strings.SplitN(email, "@", 2)[0],
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return TokenResult{}, errs.Internal("failed to create user", err)
	}
	if s.log != nil {
		s.log.Infof("user registered id=%s", u.ID)
	}
	return s.issueToken(u.ID)
}

// Login 邮箱登录。账号不存在和密码不对返回同样的错误，不泄露账号存在性。
func (s *Service) Login(ctx context.Context, email, password string) (TokenResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return TokenResult{}, err
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenResult{}, errs.Unauthorizedf("invalid email or password")
	}
	if err != nil {
		return TokenResult{}, errs.Internal("failed to find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return TokenResult{}, errs.Unauthorizedf("invalid email or password")
	}
	return s.issueToken(u.ID)
}

// ChangePassword 已登录用户改密，需验证旧密码。
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return errs.Validationf("password must be at least %d characters", minPasswordLen)
	}

	u, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFoundf("user not found")
	}
	if err != nil {
		return errs.Internal("failed to find user", err)
	}
	if u.Password == "" {
		return errs.Validationf("account has no password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)) != nil {
		return errs.Unauthorizedf("old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errs.Internal("failed to hash password", err)
	}
	u.Password = string(hash)
	if err := s.repo.Save(ctx, u); err != nil {
		return errs.Internal("failed to update password", err)
	}
	return nil
}

// ForgotPassword 发送 6 位找回密码验证码，有效期 10 分钟。
// 邮箱未注册时同样返回成功，不泄露账号存在性。
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if s.log != nil {
			s.log.Warnf("forgot-password for unknown email")
		}
		return nil
	}
	if err != nil {
		return errs.Internal("failed to find user", err)
	}
	if s.mailer == nil {
		return errs.Internal("mail not configured", nil)
	}

	code, err := newResetCode()
	if err != nil {
		return errs.Internal("failed to generate reset code", err)
	}
	expiry := s.now().Add(resetCodeTTL)
	u.ResetCode = code
	u.ResetCodeExpiry = &expiry
	if err := s.repo.Save(ctx, u); err != nil {
		return errs.Internal("failed to store reset code", err)
	}

	body := fmt.Sprintf(
		"<p>Your password reset code is <b>%s</b>.</p><p>It expires in %d minutes.</p>",
		code, int(resetCodeTTL.Minutes()))
	if err := s.mailer.Send(email, "Password Reset Code", body); err != nil {
		if s.log != nil {
			s.log.Errorf("failed to send reset code mail: %v", err)
		}
		return errs.Internal("failed to send mail", err)
	}
	return nil
}

// ResetPassword 用验证码重置密码，验证码一次性。
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if len(newPassword) < minPasswordLen {
		return errs.Validationf("password must be at least %d characters", minPasswordLen)
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Validationf("invalid or expired reset code")
	}
	if err != nil {
		return errs.Internal("failed to find user", err)
	}
	if u.ResetCode == "" || u.ResetCode != strings.TrimSpace(code) {
		return errs.Validationf("invalid or expired reset code")
	}
	if u.ResetCodeExpiry == nil || s.now().After(*u.ResetCodeExpiry) {
		return errs.Validationf("invalid or expired reset code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errs.Internal("failed to hash password", err)
	}
	u.Password = string(hash)
	u.ResetCode = ""
	u.ResetCodeExpiry = nil
	if err := s.repo.Save(ctx, u); err != nil {
		return errs.Internal("failed to reset password", err)
	}
	if s.log != nil {
		s.log.Infof("password reset for user %s", u.ID)
	}
	return nil
}

// Profile 当前用户资料。
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("user not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to find user", err)
	}
	return u, nil
}

// UpdateProfileInput nil 字段不更新。
type UpdateProfileInput struct {
	Nickname  *string
	AvatarURL *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Nickname != nil {
		nick := strings.TrimSpace(*in.Nickname)
		if nick == "" {
			return nil, errs.Validationf("nickname required")
		}
		u.Nickname = nick
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, errs.Internal("failed to update profile", err)
	}
	return u, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errs.Validationf("email required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errs.Validationf("invalid email address")
	}
	return email, nil
}

// newResetCode 6 位数字验证码（crypto/rand）。
func newResetCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < resetCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n), nil
}
