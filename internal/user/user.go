package user

import "time"

// User 是 users 表的 GORM 模型。
// 两条登录通道共用一张表：微信用户有 open_id，邮箱用户有 email + password，
// 两个唯一索引都允许 NULL（MySQL 对 NULL 不做唯一约束）。
type User struct {
	ID        string  `gorm:"primaryKey;size:36"`
	OpenID    *string `gorm:"uniqueIndex;size:64"`  // 微信小程序 openid
	Email     *string `gorm:"uniqueIndex;size:255"` // 邮箱登录账号
	Password  string  `gorm:"size:255" json:"-"` // bcrypt 哈希，微信用户为空
	Nickname  string  `gorm:"size:100"`
	AvatarURL string  `gorm:"size:1024"`

	ResetCode       string     `gorm:"size:10" json:"-"` // 找回密码验证码
	ResetCodeExpiry *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
