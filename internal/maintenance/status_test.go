package maintenance

import (
	"testing"
	"time"

	"github.com/CarSave/CarSave/internal/vehicle"
)

func f64(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeStatusMileage(t *testing.T) {
	comp := &Component{
		MaintenanceType:  TypeMileage,
		MaintenanceValue: 5000,
		TargetMileage:    f64(25000),
	}
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name          string
		mileage       int
		wantStatus    Status
		wantRemaining float64
	}{
		{"plenty left", 20000, StatusGood, 5000},
		{"within threshold", 24950, StatusAttention, 50},
		{"exactly at target", 25000, StatusWarning, 0},
		{"past target", 25200, StatusWarning, -200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &vehicle.Vehicle{Mileage: tc.mileage}
			got := ComputeStatus(comp, v, now)
			if got.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", got.Status, tc.wantStatus)
			}
			if got.Remaining == nil || *got.Remaining != tc.wantRemaining {
				t.Fatalf("remaining = %v, want %v", got.Remaining, tc.wantRemaining)
			}
		})
	}
}

func TestComputeStatusDate(t *testing.T) {
	comp := &Component{
		MaintenanceType:     TypeDate,
		MaintenanceValue:    180,
		TargetDate:          date(2024, 6, 29),
		LastMaintenanceDate: date(2024, 1, 1),
	}
	v := &vehicle.Vehicle{Mileage: 20000}

	cases := []struct {
		name          string
		now           time.Time
		wantStatus    Status
		wantRemaining float64
	}{
		{"far out", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), StatusGood, 59},
		{"nine days left", time.Date(2024, 6, 20, 23, 0, 0, 0, time.UTC), StatusAttention, 9},
		{"due today", time.Date(2024, 6, 29, 8, 0, 0, 0, time.UTC), StatusWarning, 0},
		{"overdue", time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), StatusWarning, -6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeStatus(comp, v, tc.now)
			if got.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", got.Status, tc.wantStatus)
			}
			if got.Remaining == nil || *got.Remaining != tc.wantRemaining {
				t.Fatalf("remaining = %v, want %v", got.Remaining, tc.wantRemaining)
			}
		})
	}
}

func TestComputeStatusUnknown(t *testing.T) {
	now := time.Now()
	v := &vehicle.Vehicle{Mileage: 1000}

	got := ComputeStatus(&Component{MaintenanceType: TypeMileage}, v, now)
	if got.Status != StatusUnknown || got.Remaining != nil {
		t.Fatalf("mileage without target: got %+v, want unknown", got)
	}
	got = ComputeStatus(&Component{MaintenanceType: TypeDate}, v, now)
	if got.Status != StatusUnknown || got.Remaining != nil {
		t.Fatalf("date without target: got %+v, want unknown", got)
	}
	got = ComputeStatus(nil, v, now)
	if got.Status != StatusUnknown {
		t.Fatalf("nil component: got %+v, want unknown", got)
	}
}

// 同样的输入多次计算必须得到同样的结果：计算本身不产生副作用。
func TestComputeStatusIdempotent(t *testing.T) {
	comp := &Component{
		MaintenanceType:  TypeMileage,
		MaintenanceValue: 5000,
		TargetMileage:    f64(25000),
	}
	v := &vehicle.Vehicle{Mileage: 24950}
	now := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	first := ComputeStatus(comp, v, now)
	second := ComputeStatus(comp, v, now)
	if first.Status != second.Status || *first.Remaining != *second.Remaining {
		t.Fatalf("status not stable: %+v vs %+v", first, second)
	}
	if *comp.TargetMileage != 25000 || v.Mileage != 24950 {
		t.Fatalf("inputs mutated: target=%v mileage=%d", *comp.TargetMileage, v.Mileage)
	}
}

func TestComputeProgressMileage(t *testing.T) {
	comp := &Component{
		MaintenanceType:  TypeMileage,
		MaintenanceValue: 5000,
		TargetMileage:    f64(25000),
	}
	now := time.Now()

	cases := []struct {
		mileage int
		want    float64
	}{
		{20000, 0.0},
		{22500, 0.5},
		{25000, 1.0},
		{26000, 1.0}, // 超出也封顶
		{19000, 0.0}, // 起点之前封底
	}
	for _, tc := range cases {
		got := ComputeProgress(comp, &vehicle.Vehicle{Mileage: tc.mileage}, now)
		if got != tc.want {
			t.Fatalf("mileage=%d: progress = %v, want %v", tc.mileage, got, tc.want)
		}
	}
}

// 里程不下降时进度必须单调不减。
func TestComputeProgressMonotonic(t *testing.T) {
	comp := &Component{
		MaintenanceType:  TypeMileage,
		MaintenanceValue: 5000,
		TargetMileage:    f64(25000),
	}
	now := time.Now()
	prev := -1.0
	for m := 20000; m <= 26000; m += 500 {
		got := ComputeProgress(comp, &vehicle.Vehicle{Mileage: m}, now)
		if got < prev {
			t.Fatalf("progress decreased at mileage %d: %v < %v", m, got, prev)
		}
		prev = got
	}
}

func TestComputeProgressDate(t *testing.T) {
	comp := &Component{
		MaintenanceType:     TypeDate,
		MaintenanceValue:    180,
		TargetDate:          date(2024, 6, 29),
		LastMaintenanceDate: date(2024, 1, 1),
	}
	v := &vehicle.Vehicle{Mileage: 20000}

	if got := ComputeProgress(comp, v, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); got != 0.0 {
		t.Fatalf("progress at cycle start = %v, want 0", got)
	}
	if got := ComputeProgress(comp, v, time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC)); got != 1.0 {
		t.Fatalf("progress at target = %v, want 1", got)
	}
	if got := ComputeProgress(comp, v, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)); got != 1.0 {
		t.Fatalf("progress past target = %v, want 1", got)
	}
	mid := ComputeProgress(comp, v, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) // 90 天后
	if mid != 0.5 {
		t.Fatalf("progress mid cycle = %v, want 0.5", mid)
	}
}

func TestComputeProgressDateDegenerate(t *testing.T) {
	v := &vehicle.Vehicle{Mileage: 0}
	now := time.Now()

	// 总时长为 0 视为已逾期
	comp := &Component{
		MaintenanceType:     TypeDate,
		MaintenanceValue:    0,
		TargetDate:          date(2024, 1, 1),
		LastMaintenanceDate: date(2024, 1, 1),
	}
	if got := ComputeProgress(comp, v, now); got != 1.0 {
		t.Fatalf("zero length cycle: progress = %v, want 1", got)
	}

	// 缺少锚点无法计算
	comp = &Component{MaintenanceType: TypeDate, TargetDate: date(2024, 6, 29)}
	if got := ComputeProgress(comp, v, now); got != 0.0 {
		t.Fatalf("missing last maintenance date: progress = %v, want 0", got)
	}
}
