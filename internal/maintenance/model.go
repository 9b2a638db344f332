package maintenance

import "time"

// Type 保养周期的计量方式（持久化为字符串，创建后不可变更）。
type Type string

const (
	TypeMileage Type = "mileage" // 按里程（公里）
	TypeDate    Type = "date"    // 按日期（天）
)

// Valid 判断是否是已知类型。
func (t Type) Valid() bool {
	return t == TypeMileage || t == TypeDate
}

// Component 是 maintenance_components 表的 GORM 模型。
// 不变式：类型决定哪个目标字段有值，另一个恒为 NULL。
type Component struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"index;size:36;not null"` // 冗余归属用户，查询免联表
	VehicleID string `gorm:"index;size:36;not null"`
	Name      string `gorm:"size:255;not null"`

	MaintenanceType  Type    `gorm:"type:varchar(16);not null"`
	MaintenanceValue float64 `gorm:"not null"` // 周期长度：公里数或天数
	Unit             string  `gorm:"size:20"`  // 展示用单位（km / 天）

	TargetMileage       *float64   // 按里程的下次保养目标
	TargetDate          *time.Time `gorm:"type:date"` // 按日期的下次保养目标
	LastMaintenanceDate *time.Time `gorm:"type:date"` // 首次保养前为 NULL

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Component) TableName() string {
	return "maintenance_components"
}

// Record 是 maintenance_records 表的 GORM 模型。
// 正常流程只追加；部件删除后历史记录保留（component_id 置空前提下不删，
// 但部件主动删除时按产品语义级联清掉，车辆删除同理）。
type Record struct {
	ID            string  `gorm:"primaryKey;size:36"`
	UserID        string  `gorm:"index;size:36;not null"`
	VehicleID     string  `gorm:"index;size:36;not null"`
	ComponentID   *string `gorm:"index;size:36"` // 可空：记录可以脱离部件存在
	ComponentName string  `gorm:"size:100"`      // 冗余部件名，部件删除后仍可读

	MaintenanceDate      time.Time `gorm:"type:date;not null"`
	MileageAtMaintenance *float64  // 保养时上报的里程（可空）
	Notes                string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Record) TableName() string {
	return "maintenance_records"
}
