package maintenance

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// Transaction 在单事务内执行 fn；fn 拿到的是绑定事务的 Repo。
func (r *Repo) Transaction(ctx context.Context, fn func(tx *Repo) error) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{db: tx})
	})
}

// DB 暴露底层连接，供同事务内构造其他仓储（如 vehicle.Repo）。
func (r *Repo) DB() *gorm.DB {
	return r.db
}

func (r *Repo) CreateComponent(ctx context.Context, c *Component) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(c).Error
}

func (r *Repo) SaveComponent(ctx context.Context, c *Component) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(c).Error
}

func (r *Repo) FindComponentForUser(ctx context.Context, id, userID string) (*Component, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Component
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindComponentForUpdate 行级锁版本，只能在事务内使用；
// 用于串行化同一部件上的并发 mark-maintained。
// SQLite 没有 FOR UPDATE（单写者），跳过加锁子句。
func (r *Repo) FindComponentForUpdate(ctx context.Context, id, userID string) (*Component, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c Component
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ComponentFilter 部件查询条件。
type ComponentFilter struct {
	UserID    string
	VehicleID string // 可选
}

func (r *Repo) ListComponents(ctx context.Context, f ComponentFilter) ([]Component, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Component{}).Where("user_id = ?", f.UserID)
	if f.VehicleID != "" {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	var components []Component
	if err := q.Order("created_at DESC").Find(&components).Error; err != nil {
		return nil, err
	}
	return components, nil
}

func (r *Repo) DeleteComponent(ctx context.Context, id, userID string) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Component{})
	return res.RowsAffected, res.Error
}

func (r *Repo) CreateRecord(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(rec).Error
}

func (r *Repo) SaveRecord(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(rec).Error
}

func (r *Repo) FindRecordForUser(ctx context.Context, id, userID string) (*Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rec Record
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordFilter 记录查询条件。
type RecordFilter struct {
	UserID      string
	VehicleID   string // 可选
	ComponentID string // 可选
}

func (r *Repo) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Record{}).Where("user_id = ?", f.UserID)
	if f.VehicleID != "" {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	if f.ComponentID != "" {
		q = q.Where("component_id = ?", f.ComponentID)
	}
	var records []Record
	if err := q.Order("maintenance_date DESC, created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repo) DeleteRecord(ctx context.Context, id, userID string) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Record{})
	return res.RowsAffected, res.Error
}

func (r *Repo) DeleteRecordsByComponent(ctx context.Context, componentID, userID string) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	res := db.Where("component_id = ? AND user_id = ?", componentID, userID).Delete(&Record{})
	return res.RowsAffected, res.Error
}

// DeleteByVehicle 车辆级联删除：部件和记录一起清掉。
func (r *Repo) DeleteByVehicle(ctx context.Context, vehicleID, userID string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if err := db.Where("vehicle_id = ? AND user_id = ?", vehicleID, userID).Delete(&Record{}).Error; err != nil {
		return err
	}
	return db.Where("vehicle_id = ? AND user_id = ?", vehicleID, userID).Delete(&Component{}).Error
}
