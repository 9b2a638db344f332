package vehicle

import (
	"context"
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
	if err := db.AutoMigrate(&Vehicle{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepo(db), nil)
}

func TestCreateVehicleValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", CreateVehicleInput{Name: "  "})
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("blank name: err = %v, want validation", err)
	}
	_, err = svc.Create(ctx, "u1", CreateVehicleInput{Name: "Car", Mileage: -1})
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("negative mileage: err = %v, want validation", err)
	}
}

func TestCreateVehicleDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", CreateVehicleInput{Name: "Family Car", PlateNumber: "京A12345"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, "u1", CreateVehicleInput{Name: "Family Car"})
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("duplicate name: err = %v, want conflict", err)
	}
	_, err = svc.Create(ctx, "u1", CreateVehicleInput{Name: "Second Car", PlateNumber: "京A12345"})
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("duplicate plate: err = %v, want conflict", err)
	}

	// 唯一性按用户隔离：别的用户可以重名
	if _, err := svc.Create(ctx, "u2", CreateVehicleInput{Name: "Family Car"}); err != nil {
		t.Fatalf("same name for another user: %v", err)
	}
}

func TestVehicleOwnershipIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, "owner", CreateVehicleInput{Name: "Family Car", Mileage: 20000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, "intruder", v.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("foreign get: err = %v, want not found", err)
	}
	if err := svc.Delete(ctx, "intruder", v.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("foreign delete: err = %v, want not found", err)
	}

	list, err := svc.List(ctx, "intruder")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("foreign list leaked %d vehicles", len(list))
	}
}

func TestUpdateVehiclePartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, "u1", CreateVehicleInput{Name: "Family Car", Mileage: 20000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mileage := 21000
	got, err := svc.Update(ctx, "u1", v.ID, UpdateVehicleInput{Mileage: &mileage})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Mileage != 21000 || got.Name != "Family Car" {
		t.Fatalf("partial update wrong: %+v", got)
	}
}

func TestDeleteVehicleRunsHooks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, "u1", CreateVehicleInput{Name: "Family Car"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var hookUser, hookVehicle string
	svc.RegisterDeleteHook(func(_ context.Context, userID, vehicleID string) error {
		hookUser, hookVehicle = userID, vehicleID
		return nil
	})

	if err := svc.Delete(ctx, "u1", v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if hookUser != "u1" || hookVehicle != v.ID {
		t.Fatalf("hook not called with owner scope: user=%q vehicle=%q", hookUser, hookVehicle)
	}
	if _, err := svc.Get(ctx, "u1", v.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("vehicle still readable after delete: %v", err)
	}
}
