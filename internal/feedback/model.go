package feedback

import "time"

// Feedback 是 feedback 表的 GORM 模型，用户提交的意见反馈。
type Feedback struct {
	ID      string `gorm:"primaryKey;size:36"`
	UserID  string `gorm:"index;size:36;not null"`
	Content string `gorm:"type:text;not null"`
	Contact string `gorm:"size:255"` // 可选联系方式

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Feedback) TableName() string {
	return "feedback"
}
