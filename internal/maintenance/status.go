package maintenance

import (
	"time"

	"github.com/CarSave/CarSave/internal/vehicle"
)

// Status 部件的保养紧急程度。
type Status string

const (
	StatusGood      Status = "good"
	StatusAttention Status = "attention"
	StatusWarning   Status = "warning"
	StatusUnknown   Status = "unknown"
)

// 固定阈值：剩余不足 100 公里 / 15 天进入 attention。
const (
	mileageAttentionThreshold = 100.0
	dateAttentionDays         = 15
)

// StatusResult 状态与剩余量（里程型为公里，日期型为天）。
// Remaining 在 unknown 时为 nil。
type StatusResult struct {
	Status    Status   `json:"status"`
	Remaining *float64 `json:"remaining,omitempty"`
}

// ComputeStatus 对 (部件, 车辆, 当前时间) 的纯函数，不做任何持久化。
//
// 里程型：remaining = 目标里程 - 车辆当前里程；<=0 warning，<=100 attention。
// 日期型：目标日与今天都截断到日期再求差；<=0 天 warning，<=15 天 attention。
func ComputeStatus(c *Component, v *vehicle.Vehicle, now time.Time) StatusResult {
	if c == nil || v == nil {
		return StatusResult{Status: StatusUnknown}
	}

	switch c.MaintenanceType {
	case TypeMileage:
		if c.TargetMileage == nil {
			return StatusResult{Status: StatusUnknown}
		}
		remaining := *c.TargetMileage - float64(v.Mileage)
		st := StatusGood
		if remaining <= 0 {
			st = StatusWarning
		} else if remaining <= mileageAttentionThreshold {
			st = StatusAttention
		}
		return StatusResult{Status: st, Remaining: &remaining}

	case TypeDate:
		if c.TargetDate == nil {
			return StatusResult{Status: StatusUnknown}
		}
		remainingDays := float64(daysCeil(now, *c.TargetDate))
		st := StatusGood
		if remainingDays <= 0 {
			st = StatusWarning
		} else if remainingDays <= dateAttentionDays {
			st = StatusAttention
		}
		return StatusResult{Status: st, Remaining: &remainingDays}
	}

	return StatusResult{Status: StatusUnknown}
}

// ComputeProgress 当前周期的完成度，范围 [0.0, 1.0]，同样是纯函数。
//
// 里程型：周期起点 = 目标里程 - 周期长度；(当前里程 - 起点) / 周期长度。
// 日期型：需要上次保养日与目标日都存在；总时长 <= 0 视为已逾期，返回 1.0。
func ComputeProgress(c *Component, v *vehicle.Vehicle, now time.Time) float64 {
	if c == nil || v == nil {
		return 0.0
	}

	switch c.MaintenanceType {
	case TypeMileage:
		if c.TargetMileage == nil || *c.TargetMileage <= 0 || c.MaintenanceValue <= 0 {
			return 0.0
		}
		cycleStart := *c.TargetMileage - c.MaintenanceValue
		return clamp01((float64(v.Mileage) - cycleStart) / c.MaintenanceValue)

	case TypeDate:
		if c.TargetDate == nil || c.LastMaintenanceDate == nil {
			return 0.0
		}
		total := daysCeil(*c.LastMaintenanceDate, *c.TargetDate)
		if total <= 0 {
			return 1.0
		}
		elapsed := daysCeil(*c.LastMaintenanceDate, now)
		return clamp01(float64(elapsed) / float64(total))
	}

	return 0.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
