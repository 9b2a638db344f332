package vehicle

import (
	"time"
)

// Vehicle 是 vehicles 表的 GORM 模型。
// 里程只增不减：保养上报的里程高于当前值时才会抬高（见 maintenance 包）。
type Vehicle struct {
	ID                string     `gorm:"primaryKey;size:36"`
	UserID            string     `gorm:"index;size:36;not null"` // 归属用户
	Name              string     `gorm:"size:255;not null"`
	Mileage           int        `gorm:"not null"` // 当前里程（公里）
	ManufacturingDate *time.Time `gorm:"type:date"`
	Image             string     `gorm:"size:1024"`
	PlateNumber       string     `gorm:"size:50"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
}
