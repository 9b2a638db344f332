package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/CarSave/CarSave/internal/common/errs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
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
	if err := db.AutoMigrate(&Feedback{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepo(db), nil)
}

func TestSubmitAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "u1", "  ", ""); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("blank content: err = %v, want validation", err)
	}
	if _, err := svc.Submit(ctx, "u1", strings.Repeat("x", maxContentLen+1), ""); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("oversized content: err = %v, want validation", err)
	}

	f, err := svc.Submit(ctx, "u1", "app crashes on launch", "u1@example.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.ID == "" {
		t.Fatalf("empty feedback id")
	}

	mine, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].Content != "app crashes on launch" {
		t.Fatalf("list = %+v", mine)
	}

	others, err := svc.List(ctx, "u2")
	if err != nil {
		t.Fatalf("list others: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("feedback leaked across users: %d", len(others))
	}
}
