package backup

import "time"

// Meta 是 user_data_backup 表的 GORM 模型，每个用户最多一份备份。
// 对象存储里的文件名固定由 user_id 推导，重复上传覆盖旧备份。
type Meta struct {
	UserID    string `gorm:"primaryKey;size:36"`
	ObjectURL string `gorm:"size:1024"` // 对外可访问的下载地址

	UploadTime    *time.Time
	UploadCount   int `gorm:"not null;default:0"`
	DownloadTime  *time.Time
	DownloadCount int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Meta) TableName() string {
	return "user_data_backup"
}
