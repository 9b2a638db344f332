package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/CarSave/CarSave/internal/common/errs"
	"github.com/CarSave/CarSave/internal/common/logger"
	"gorm.io/gorm"
)

// 单个备份上限（客户端 JSON 导出，10MB 已远超正常体量）
const MaxBackupSize = 10 << 20

// ObjectStore 备份文件的对象存储出口（storage.Store 实现）。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Remove(ctx context.Context, objectName string) error
}

// Service 用户数据备份：每用户一份，上传覆盖旧备份。
type Service struct {
	repo  *Repo
	store ObjectStore
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo *Repo, store ObjectStore, log logger.Logger) *Service {
	return &Service{repo: repo, store: store, log: log, now: time.Now}
}

func objectName(userID string) string {
	return fmt.Sprintf("backups/%s.json", userID)
}

// Upload 上传（或覆盖）当前用户的备份。
func (s *Service) Upload(ctx context.Context, userID string, data []byte, contentType string) (*Meta, error) {
	if len(data) == 0 {
		return nil, errs.Validationf("backup payload is empty")
	}
	if len(data) > MaxBackupSize {
		return nil, errs.Validationf("backup payload exceeds %d bytes", MaxBackupSize)
	}
	if s.store == nil {
		return nil, errs.Internal("object storage not configured", nil)
	}
	if contentType == "" {
		contentType = "application/json"
	}

	// 对象名固定，PutObject 直接覆盖旧备份
	url, err := s.store.Put(ctx, objectName(userID), data, contentType)
	if err != nil {
		return nil, errs.Internal("failed to upload backup", err)
	}

	m, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = &Meta{UserID: userID}
	} else if err != nil {
		return nil, errs.Internal("failed to load backup meta", err)
	}

	uploadedAt := s.now()
	m.ObjectURL = url
	m.UploadTime = &uploadedAt
	m.UploadCount++
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, errs.Internal("failed to save backup meta", err)
	}
	if s.log != nil {
		s.log.Infof("backup uploaded user=%s bytes=%d count=%d", userID, len(data), m.UploadCount)
	}
	return m, nil
}

// Download 取回当前用户的备份内容，调用方负责关闭 reader。
func (s *Service) Download(ctx context.Context, userID string) (io.ReadCloser, *Meta, error) {
	m, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errs.NotFoundf("no backup found")
	}
	if err != nil {
		return nil, nil, errs.Internal("failed to load backup meta", err)
	}
	if s.store == nil {
		return nil, nil, errs.Internal("object storage not configured", nil)
	}

	rc, err := s.store.Get(ctx, objectName(userID))
	if err != nil {
		return nil, nil, errs.Internal("failed to fetch backup", err)
	}

	downloadedAt := s.now()
	m.DownloadTime = &downloadedAt
	m.DownloadCount++
	if err := s.repo.Save(ctx, m); err != nil {
		rc.Close()
		return nil, nil, errs.Internal("failed to save backup meta", err)
	}
	return rc, m, nil
}

// Info 备份元信息（上传/下载次数与时间）。
func (s *Service) Info(ctx context.Context, userID string) (*Meta, error) {
	m, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("no backup found")
	}
	if err != nil {
		return nil, errs.Internal("failed to load backup meta", err)
	}
	return m, nil
}
