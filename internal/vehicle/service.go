package vehicle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CarSave/CarSave/internal/common/errs"
	"github.com/CarSave/CarSave/internal/common/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeleteHook 车辆删除时的级联回调（由 main 注入，避免包间循环依赖）。
type DeleteHook func(ctx context.Context, userID, vehicleID string) error

// Service 封装车辆领域的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo        *Repo
	log         logger.Logger
	deleteHooks []DeleteHook
}

func NewService(repo *Repo, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RegisterDeleteHook 注册级联删除回调（保养部件/记录随车辆一起删除）。
func (s *Service) RegisterDeleteHook(h DeleteHook) {
	if h != nil {
		s.deleteHooks = append(s.deleteHooks, h)
	}
}

// CreateVehicleInput 创建车辆的入参。
type CreateVehicleInput struct {
	Name              string
	Mileage           int
	ManufacturingDate *time.Time
	Image             string
	PlateNumber       string
}

// UpdateVehicleInput 更新车辆的入参（nil 字段不更新）。
type UpdateVehicleInput struct {
	Name              *string
	Mileage           *int
	ManufacturingDate *time.Time
	Image             *string
	PlateNumber       *string
}

func (s *Service) Create(ctx context.Context, userID string, in CreateVehicleInput) (*Vehicle, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.Validationf("vehicle name required")
	}
	if in.Mileage < 0 {
		return nil, errs.Validationf("mileage must be >= 0")
	}

	// 同一用户下车辆名唯一
	if _, err := s.repo.FindByNameForUser(ctx, name, userID); err == nil {
		return nil, errs.Conflictf("vehicle named %q already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Internal("failed to check vehicle name", err)
	}

	// 车牌号同理（为空不校验）
	plate := strings.TrimSpace(in.PlateNumber)
	if plate != "" {
		if _, err := s.repo.FindByPlateForUser(ctx, plate, userID); err == nil {
			return nil, errs.Conflictf("vehicle with plate number %q already exists", plate)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Internal("failed to check plate number", err)
		}
	}

	v := &Vehicle{
		ID:                uuid.NewString(),
		UserID:            userID,
		Name:              name,
		Mileage:           in.Mileage,
		ManufacturingDate: in.ManufacturingDate,
		Image:             strings.TrimSpace(in.Image),
		PlateNumber:       plate,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, errs.Internal("failed to create vehicle", err)
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Vehicle, error) {
	v, err := s.repo.FindByIDForUser(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("vehicle %s not found", id)
	}
	if err != nil {
		return nil, errs.Internal("failed to find vehicle", err)
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Vehicle, error) {
	vehicles, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal("failed to list vehicles", err)
	}
	return vehicles, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateVehicleInput) (*Vehicle, error) {
	v, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errs.Validationf("vehicle name required")
		}
		if name != v.Name {
			if other, err := s.repo.FindByNameForUser(ctx, name, userID); err == nil && other.ID != v.ID {
				return nil, errs.Conflictf("vehicle named %q already exists", name)
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.Internal("failed to check vehicle name", err)
			}
			v.Name = name
		}
	}
	if in.Mileage != nil {
		if *in.Mileage < 0 {
			return nil, errs.Validationf("mileage must be >= 0")
		}
		v.Mileage = *in.Mileage
	}
	if in.ManufacturingDate != nil {
		v.ManufacturingDate = in.ManufacturingDate
	}
	if in.Image != nil {
		v.Image = strings.TrimSpace(*in.Image)
	}
	if in.PlateNumber != nil {
		v.PlateNumber = strings.TrimSpace(*in.PlateNumber)
	}

	if err := s.repo.Save(ctx, v); err != nil {
		return nil, errs.Internal("failed to update vehicle", err)
	}
	return v, nil
}

// Delete 先跑级联回调再删车辆本身。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	for _, h := range s.deleteHooks {
		if err := h(ctx, userID, id); err != nil {
			return err
		}
	}
	affected, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return errs.Internal("failed to delete vehicle", err)
	}
	if affected == 0 {
		return errs.NotFoundf("vehicle %s not found", id)
	}
	if s.log != nil {
		s.log.Infof("vehicle deleted id=%s user=%s", id, userID)
	}
	return nil
}
