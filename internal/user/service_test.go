package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/CarSave/CarSave/internal/common/config"
	"github.com/CarSave/CarSave/internal/common/errs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeSession struct {
	openID string
	err    error
}

func (f *fakeSession) Code2Session(_ context.Context, _ string) (string, error) {
	return f.openID, f.err
}

type fakeMailer struct {
	to      string
	subject string
	body    string
	sent    int
	err     error
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	f.to, f.subject, f.body = to, subject, htmlBody
	f.sent++
	return f.err
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "carsave",
		Audience:  "carsave-app",
		TTLHours:  1,
	}
}

func newTestService(t *testing.T, session SessionProvider, mailer MailSender) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepo(db), session, mailer, testAuthConfig(), nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "Alice@Example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Token == "" || reg.UserID == "" {
		t.Fatalf("register returned empty token/user: %+v", reg)
	}

	// 邮箱大小写归一化
	login, err := svc.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.UserID != reg.UserID {
		t.Fatalf("login user = %s, want %s", login.UserID, reg.UserID)
	}

	u, err := svc.Profile(ctx, reg.UserID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if u.Password == "secret123" {
		t.Fatalf("password stored in plain text")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "bob@example.com", "other-pass")
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("duplicate email: err = %v, want conflict", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// 密码不对和账号不存在必须是同一个错误
	_, badPass := svc.Login(ctx, "carol@example.com", "wrong-pass")
	_, noUser := svc.Login(ctx, "nobody@example.com", "whatever1")
	if errs.KindOf(badPass) != errs.KindUnauthorized {
		t.Fatalf("wrong password: err = %v, want unauthorized", badPass)
	}
	if errs.KindOf(noUser) != errs.KindUnauthorized {
		t.Fatalf("unknown email: err = %v, want unauthorized", noUser)
	}
	if errs.Message(badPass) != errs.Message(noUser) {
		t.Fatalf("error messages leak account existence: %q vs %q",
			errs.Message(badPass), errs.Message(noUser))
	}
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "dave@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, reg.UserID, "wrong-old", "newsecret"); errs.KindOf(err) != errs.KindUnauthorized {
		t.Fatalf("wrong old password: err = %v, want unauthorized", err)
	}
	if err := svc.ChangePassword(ctx, reg.UserID, "secret123", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(ctx, "dave@example.com", "secret123"); err == nil {
		t.Fatalf("old password still accepted")
	}
	if _, err := svc.Login(ctx, "dave@example.com", "newsecret"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(t, nil, mailer)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "erin@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "erin@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if mailer.sent != 1 || mailer.to != "erin@example.com" {
		t.Fatalf("mail not sent: %+v", mailer)
	}

	u, err := svc.repo.FindByEmail(ctx, "erin@example.com")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(u.ResetCode) != resetCodeDigits || u.ResetCodeExpiry == nil {
		t.Fatalf("reset code not stored: code=%q expiry=%v", u.ResetCode, u.ResetCodeExpiry)
	}

	if err := svc.ResetPassword(ctx, "erin@example.com", "000000x", "newsecret"); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("bad code: err = %v, want validation", err)
	}
	if err := svc.ResetPassword(ctx, "erin@example.com", u.ResetCode, "newsecret"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := svc.Login(ctx, "erin@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// 验证码一次性
	if err := svc.ResetPassword(ctx, "erin@example.com", u.ResetCode, "another1"); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("reused code: err = %v, want validation", err)
	}
}

func TestResetPasswordExpiredCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(t, nil, mailer)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "frank@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "frank@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	u, err := svc.repo.FindByEmail(ctx, "frank@example.com")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}

	// 拨快时钟越过有效期
	svc.now = func() time.Time { return time.Now().Add(resetCodeTTL + time.Minute) }
	if err := svc.ResetPassword(ctx, "frank@example.com", u.ResetCode, "newsecret"); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expired code: err = %v, want validation", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newTestService(t, nil, mailer)

	// 未注册邮箱也返回成功，且不发邮件
	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if mailer.sent != 0 {
		t.Fatalf("mail sent for unknown email")
	}
}

func TestWxLogin(t *testing.T) {
	session := &fakeSession{openID: "oX1234567890"}
	svc := newTestService(t, session, nil)
	ctx := context.Background()

	first, err := svc.WxLogin(ctx, "js-code-1")
	if err != nil {
		t.Fatalf("wx login: %v", err)
	}
	if first.Token == "" {
		t.Fatalf("empty token")
	}

	// 同一 openid 再次登录复用账号
	second, err := svc.WxLogin(ctx, "js-code-2")
	if err != nil {
		t.Fatalf("second wx login: %v", err)
	}
	if second.UserID != first.UserID {
		t.Fatalf("openid mapped to two users: %s vs %s", first.UserID, second.UserID)
	}
}

func TestWxLoginUpstreamFailure(t *testing.T) {
	session := &fakeSession{err: fmt.Errorf("jscode2session errcode=40029: invalid code")}
	svc := newTestService(t, session, nil)

	_, err := svc.WxLogin(context.Background(), "bad-code")
	if errs.KindOf(err) != errs.KindUnauthorized {
		t.Fatalf("upstream failure: err = %v, want unauthorized", err)
	}
}
