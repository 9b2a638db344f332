package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CarSave/CarSave/internal/common/errs"
	"github.com/CarSave/CarSave/internal/common/logger"
	"github.com/CarSave/CarSave/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service 保养域的编排层：所有入口都显式带 acting user，
// 先做归属校验（失败一律 NotFound），再调用状态/进度/目标重算逻辑。
type Service struct {
	repo     *Repo
	vehicles *vehicle.Repo
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo *Repo, vehicles *vehicle.Repo, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		vehicles: vehicles,
		log:      log,
		now:      time.Now,
	}
}

// CreateComponentInput 创建部件的入参。
type CreateComponentInput struct {
	VehicleID        string
	Name             string
	MaintenanceType  Type
	MaintenanceValue float64
	Unit             string
	TargetMileage    *float64 // 可选：覆盖推算出的目标里程（仅里程型）
}

// CreateComponent 创建部件并计算初始目标：
// 里程型目标 = 车辆当前里程 + 周期；日期型目标 = 今天 + 周期天数，
// 且日期型的周期从创建时开始（last_maintenance_date = 今天）。
func (s *Service) CreateComponent(ctx context.Context, userID string, in CreateComponentInput) (*Component, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.Validationf("component name required")
	}
	if !in.MaintenanceType.Valid() {
		return nil, errs.Validationf("invalid maintenance type: %s", in.MaintenanceType)
	}
	if in.MaintenanceValue <= 0 {
		return nil, errs.Validationf("maintenance value must be > 0")
	}

	veh, err := s.vehicles.FindByIDForUser(ctx, in.VehicleID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("vehicle %s not found", in.VehicleID)
	}
	if err != nil {
		return nil, errs.Internal("failed to find vehicle", err)
	}

	c := &Component{
		ID:               uuid.NewString(),
		UserID:           userID,
		VehicleID:        veh.ID,
		Name:             name,
		MaintenanceType:  in.MaintenanceType,
		MaintenanceValue: in.MaintenanceValue,
		Unit:             strings.TrimSpace(in.Unit),
	}

	switch in.MaintenanceType {
	case TypeMileage:
		minTarget := float64(veh.Mileage) + in.MaintenanceValue
		if in.TargetMileage == nil {
			c.TargetMileage = &minTarget
		} else {
			if *in.TargetMileage <= minTarget {
				return nil, errs.Validationf(
					"target mileage must be greater than current mileage plus cycle, i.e. > %.0f", minTarget)
			}
			target := *in.TargetMileage
			c.TargetMileage = &target
		}
		c.TargetDate = nil
		c.LastMaintenanceDate = nil

	case TypeDate:
		if in.TargetMileage != nil {
			return nil, errs.Validationf("target mileage is not applicable to date type")
		}
		today := dateOnly(s.now())
		target := addDays(today, int(in.MaintenanceValue))
		c.TargetDate = &target
		c.TargetMileage = nil
		c.LastMaintenanceDate = &today
	}

	if err := s.repo.CreateComponent(ctx, c); err != nil {
		return nil, errs.Internal("failed to create component", err)
	}
	if s.log != nil {
		s.log.Infof("component created id=%s vehicle=%s user=%s type=%s", c.ID, c.VehicleID, userID, c.MaintenanceType)
	}
	return c, nil
}

// MarkAsMaintained 记录一次保养并（可选）开启下个周期。
// 整个序列在单事务内执行，并对部件行加锁，保证并发调用串行化：
// 抬高车辆里程、追加保养记录、更新部件目标要么全部生效要么全部回滚。
func (s *Service) MarkAsMaintained(ctx context.Context, userID, componentID string, reportedMileage float64, recalcNextTarget bool) (*Component, error) {
	if reportedMileage < 0 {
		return nil, errs.Validationf("mileage must be >= 0")
	}

	var out *Component
	err := s.repo.Transaction(ctx, func(tx *Repo) error {
		comp, err := tx.FindComponentForUpdate(ctx, componentID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFoundf("component %s not found", componentID)
		}
		if err != nil {
			return errs.Internal("failed to find component", err)
		}

		vrepo := vehicle.NewRepo(tx.DB())
		veh, err := vrepo.FindByIDForUser(ctx, comp.VehicleID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFoundf("vehicle %s not found", comp.VehicleID)
		}
		if err != nil {
			return errs.Internal("failed to find vehicle", err)
		}

		// 里程只增不减：上报值更高才抬高，偏低只记日志
		if reportedMileage > float64(veh.Mileage) {
			veh.Mileage = int(reportedMileage)
			if err := vrepo.Save(ctx, veh); err != nil {
				return errs.Internal("failed to update vehicle mileage", err)
			}
		} else if s.log != nil && reportedMileage < float64(veh.Mileage) {
			s.log.Warnf("reported mileage %.0f is below vehicle mileage %d, keeping vehicle value (component=%s)",
				reportedMileage, veh.Mileage, comp.ID)
		}

		today := dateOnly(s.now())
		reported := reportedMileage
		rec := &Record{
			ID:                   uuid.NewString(),
			UserID:               userID,
			VehicleID:            comp.VehicleID,
			ComponentID:          &comp.ID,
			ComponentName:        comp.Name,
			MaintenanceDate:      today,
			MileageAtMaintenance: &reported,
			Notes:                fmt.Sprintf("Component %q maintained.", comp.Name),
		}
		if err := tx.CreateRecord(ctx, rec); err != nil {
			return errs.Internal("failed to create maintenance record", err)
		}

		comp.LastMaintenanceDate = &today
		if recalcNextTarget {
			s.recalcTarget(comp, &reported, float64(veh.Mileage), today)
		}
		if err := tx.SaveComponent(ctx, comp); err != nil {
			return errs.Internal("failed to update component", err)
		}

		out = comp
		return nil
	})
	if err != nil {
		if !errs.Classified(err) {
			return nil, errs.Internal("mark as maintained failed", err)
		}
		return nil, err
	}
	return out, nil
}

// recalcTarget 关闭当前周期并计算下个目标。
// 里程型基于上报里程（缺省退回车辆当前里程），日期型基于 when。
func (s *Service) recalcTarget(c *Component, reportedMileage *float64, vehicleMileage float64, when time.Time) {
	switch c.MaintenanceType {
	case TypeMileage:
		base := vehicleMileage
		if reportedMileage != nil {
			base = *reportedMileage
		} else if s.log != nil {
			s.log.Warnf("mileage not provided for mileage component %s, falling back to vehicle mileage", c.ID)
		}
		target := base + c.MaintenanceValue
		c.TargetMileage = &target
		c.TargetDate = nil
	case TypeDate:
		target := addDays(dateOnly(when), int(c.MaintenanceValue))
		c.TargetDate = &target
		c.TargetMileage = nil
	}
}

// CreateRecordInput 手工创建保养记录（如补录历史）的入参。
type CreateRecordInput struct {
	VehicleID            string
	ComponentID          string // 可选
	MaintenanceDate      time.Time
	MileageAtMaintenance *float64
	Notes                string
	// SkipComponentUpdate 跳过部件目标重算，
	// MarkAsMaintained 内部建记录时用，避免重复重算。
	SkipComponentUpdate bool
}

// CreateRecord 创建保养记录；默认同步更新关联部件的
// last_maintenance_date 和下次目标（与 MarkAsMaintained 的重算规则一致）。
func (s *Service) CreateRecord(ctx context.Context, userID string, in CreateRecordInput) (*Record, error) {
	if strings.TrimSpace(in.VehicleID) == "" {
		return nil, errs.Validationf("vehicle_id required")
	}

	var out *Record
	err := s.repo.Transaction(ctx, func(tx *Repo) error {
		vrepo := vehicle.NewRepo(tx.DB())
		veh, err := vrepo.FindByIDForUser(ctx, in.VehicleID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFoundf("vehicle %s not found", in.VehicleID)
		}
		if err != nil {
			return errs.Internal("failed to find vehicle", err)
		}

		var comp *Component
		if in.ComponentID != "" {
			comp, err = tx.FindComponentForUpdate(ctx, in.ComponentID, userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFoundf("component %s not found", in.ComponentID)
			}
			if err != nil {
				return errs.Internal("failed to find component", err)
			}
			if comp.VehicleID != veh.ID {
				return errs.NotFoundf("component %s not found", in.ComponentID)
			}
		}

		when := in.MaintenanceDate
		if when.IsZero() {
			when = s.now()
		}
		when = dateOnly(when)

		rec := &Record{
			ID:                   uuid.NewString(),
			UserID:               userID,
			VehicleID:            veh.ID,
			MaintenanceDate:      when,
			MileageAtMaintenance: in.MileageAtMaintenance,
			Notes:                in.Notes,
		}
		if comp != nil {
			rec.ComponentID = &comp.ID
			rec.ComponentName = comp.Name
		}
		if err := tx.CreateRecord(ctx, rec); err != nil {
			return errs.Internal("failed to create maintenance record", err)
		}

		if comp != nil && !in.SkipComponentUpdate {
			comp.LastMaintenanceDate = &when
			s.recalcTarget(comp, in.MileageAtMaintenance, float64(veh.Mileage), when)
			if err := tx.SaveComponent(ctx, comp); err != nil {
				return errs.Internal("failed to update component", err)
			}
		}

		out = rec
		return nil
	})
	if err != nil {
		if !errs.Classified(err) {
			return nil, errs.Internal("create maintenance record failed", err)
		}
		return nil, err
	}
	return out, nil
}

// GetStatus 计算部件当前状态（只读，不加锁）。
func (s *Service) GetStatus(ctx context.Context, userID, componentID string) (StatusResult, error) {
	comp, err := s.getComponent(ctx, userID, componentID)
	if err != nil {
		return StatusResult{}, err
	}
	veh, err := s.vehicles.FindByIDForUser(ctx, comp.VehicleID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 外键理论上保证不会发生，防御性处理
		if s.log != nil {
			s.log.Errorf("vehicle %s missing for component %s", comp.VehicleID, comp.ID)
		}
		return StatusResult{Status: StatusUnknown}, nil
	}
	if err != nil {
		return StatusResult{}, errs.Internal("failed to find vehicle", err)
	}
	return ComputeStatus(comp, veh, s.now()), nil
}

// GetProgress 计算当前周期完成度（只读，不加锁）。
func (s *Service) GetProgress(ctx context.Context, userID, componentID string) (float64, error) {
	comp, err := s.getComponent(ctx, userID, componentID)
	if err != nil {
		return 0, err
	}
	veh, err := s.vehicles.FindByIDForUser(ctx, comp.VehicleID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if s.log != nil {
			s.log.Errorf("vehicle %s missing for component %s", comp.VehicleID, comp.ID)
		}
		return 0, nil
	}
	if err != nil {
		return 0, errs.Internal("failed to find vehicle", err)
	}
	return ComputeProgress(comp, veh, s.now()), nil
}

func (s *Service) getComponent(ctx context.Context, userID, componentID string) (*Component, error) {
	comp, err := s.repo.FindComponentForUser(ctx, componentID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("component %s not found", componentID)
	}
	if err != nil {
		return nil, errs.Internal("failed to find component", err)
	}
	return comp, nil
}

func (s *Service) GetComponent(ctx context.Context, userID, componentID string) (*Component, error) {
	return s.getComponent(ctx, userID, componentID)
}

func (s *Service) ListComponents(ctx context.Context, userID, vehicleID string) ([]Component, error) {
	components, err := s.repo.ListComponents(ctx, ComponentFilter{UserID: userID, VehicleID: vehicleID})
	if err != nil {
		return nil, errs.Internal("failed to list components", err)
	}
	return components, nil
}

// UpdateComponentInput 手工更新部件（nil 字段不更新）。
// 类型创建后不可变更，目标字段只允许更新与类型匹配的那个。
type UpdateComponentInput struct {
	Name             *string
	MaintenanceValue *float64
	Unit             *string
	TargetMileage    *float64
	TargetDate       *time.Time
}

func (s *Service) UpdateComponent(ctx context.Context, userID, componentID string, in UpdateComponentInput) (*Component, error) {
	comp, err := s.getComponent(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errs.Validationf("component name required")
		}
		comp.Name = name
	}
	if in.MaintenanceValue != nil {
		if *in.MaintenanceValue <= 0 {
			return nil, errs.Validationf("maintenance value must be > 0")
		}
		comp.MaintenanceValue = *in.MaintenanceValue
	}
	if in.Unit != nil {
		comp.Unit = strings.TrimSpace(*in.Unit)
	}

	switch comp.MaintenanceType {
	case TypeMileage:
		if in.TargetDate != nil {
			return nil, errs.Validationf("target date is not applicable to mileage type")
		}
		if in.TargetMileage != nil {
			target := *in.TargetMileage
			comp.TargetMileage = &target
			comp.TargetDate = nil
		}
	case TypeDate:
		if in.TargetMileage != nil {
			return nil, errs.Validationf("target mileage is not applicable to date type")
		}
		if in.TargetDate != nil {
			target := dateOnly(*in.TargetDate)
			comp.TargetDate = &target
			comp.TargetMileage = nil
		}
	}

	if err := s.repo.SaveComponent(ctx, comp); err != nil {
		return nil, errs.Internal("failed to update component", err)
	}
	return comp, nil
}

// DeleteComponent 删除部件并级联删除其保养记录。
func (s *Service) DeleteComponent(ctx context.Context, userID, componentID string) error {
	err := s.repo.Transaction(ctx, func(tx *Repo) error {
		if _, err := tx.FindComponentForUpdate(ctx, componentID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFoundf("component %s not found", componentID)
			}
			return errs.Internal("failed to find component", err)
		}
		deleted, err := tx.DeleteRecordsByComponent(ctx, componentID, userID)
		if err != nil {
			return errs.Internal("failed to delete component records", err)
		}
		if s.log != nil {
			s.log.Infof("deleted %d maintenance records for component %s", deleted, componentID)
		}
		if _, err := tx.DeleteComponent(ctx, componentID, userID); err != nil {
			return errs.Internal("failed to delete component", err)
		}
		return nil
	})
	if err != nil && !errs.Classified(err) {
		return errs.Internal("delete component failed", err)
	}
	return err
}

func (s *Service) GetRecord(ctx context.Context, userID, recordID string) (*Record, error) {
	rec, err := s.repo.FindRecordForUser(ctx, recordID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("record %s not found", recordID)
	}
	if err != nil {
		return nil, errs.Internal("failed to find record", err)
	}
	return rec, nil
}

func (s *Service) ListRecords(ctx context.Context, userID, vehicleID, componentID string) ([]Record, error) {
	records, err := s.repo.ListRecords(ctx, RecordFilter{
		UserID:      userID,
		VehicleID:   vehicleID,
		ComponentID: componentID,
	})
	if err != nil {
		return nil, errs.Internal("failed to list records", err)
	}
	return records, nil
}

// UpdateRecordInput 管理性修正历史记录（nil 字段不更新）。
type UpdateRecordInput struct {
	MaintenanceDate      *time.Time
	MileageAtMaintenance *float64
	Notes                *string
}

func (s *Service) UpdateRecord(ctx context.Context, userID, recordID string, in UpdateRecordInput) (*Record, error) {
	rec, err := s.GetRecord(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	if in.MaintenanceDate != nil {
		rec.MaintenanceDate = dateOnly(*in.MaintenanceDate)
	}
	if in.MileageAtMaintenance != nil {
		rec.MileageAtMaintenance = in.MileageAtMaintenance
	}
	if in.Notes != nil {
		rec.Notes = *in.Notes
	}
	if err := s.repo.SaveRecord(ctx, rec); err != nil {
		return nil, errs.Internal("failed to update record", err)
	}
	return rec, nil
}

func (s *Service) DeleteRecord(ctx context.Context, userID, recordID string) error {
	affected, err := s.repo.DeleteRecord(ctx, recordID, userID)
	if err != nil {
		return errs.Internal("failed to delete record", err)
	}
	if affected == 0 {
		return errs.NotFoundf("record %s not found", recordID)
	}
	return nil
}

// RemoveVehicleData 车辆删除时的级联清理（注册为 vehicle.DeleteHook）。
func (s *Service) RemoveVehicleData(ctx context.Context, userID, vehicleID string) error {
	if err := s.repo.DeleteByVehicle(ctx, vehicleID, userID); err != nil {
		return errs.Internal("failed to delete vehicle maintenance data", err)
	}
	return nil
}
