package feedback

import (
	"context"
	"strings"

	"github.com/CarSave/CarSave/internal/common/errs"
	"github.com/CarSave/CarSave/internal/common/logger"
	"github.com/google/uuid"
)

const maxContentLen = 2000

// Service 意见反馈。
type Service struct {
	repo *Repo
	log  logger.Logger
}

func NewService(repo *Repo, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Submit(ctx context.Context, userID, content, contact string) (*Feedback, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.Validationf("content required")
	}
	if len(content) > maxContentLen {
		return nil, errs.Validationf("content exceeds %d characters", maxContentLen)
	}

	f := &Feedback{
		ID:      uuid.NewString(),
		UserID:  userID,
		Content: content,
		Contact: strings.TrimSpace(contact),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, errs.Internal("failed to create feedback", err)
	}
	if s.log != nil {
		s.log.Infof("feedback submitted id=%s user=%s", f.ID, userID)
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Feedback, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal("failed to list feedback", err)
	}
	return items, nil
}
