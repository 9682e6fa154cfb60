package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CanonicalRepository 多厂商归并宽表仓储
type CanonicalRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewCanonicalRepository(db *gorm.DB, logger *logrus.Logger) *CanonicalRepository {
	return &CanonicalRepository{db: db, logger: logger}
}

// EnsureSchema 宽表不存在时按声明的列序创建；已存在时不做任何修改
func (r *CanonicalRepository) EnsureSchema(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if db.Migrator().HasTable(model.CanonicalTable) {
		return nil
	}
	defs := make([]string, 0, len(model.CanonicalColumns))
	for _, c := range model.CanonicalColumns {
		defs = append(defs, quote(db, c.Name)+" "+sqlType(db, c.Type))
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quote(db, model.CanonicalTable), strings.Join(defs, ", "))
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("create %s: %w", model.CanonicalTable, err)
	}
	r.logger.WithField("table", model.CanonicalTable).Info("canonical table created")
	return nil
}

// ValidateSchema 启动时校验：声明的每一列都存在且相对顺序一致，映射的目标列都已声明。
// 宽表可以有额外的列。
func (r *CanonicalRepository) ValidateSchema(ctx context.Context, mappings []model.MergeMapping) error {
	for _, m := range mappings {
		if m.Tag == "" || m.SourceTable == "" {
			return fmt.Errorf("merge mapping for %s has no tag or source table", m.Vendor)
		}
		for _, f := range m.Fields {
			if _, ok := model.CanonicalColumnType(f.Target); !ok {
				return fmt.Errorf("merge mapping for %s targets undeclared column %q", m.Vendor, f.Target)
			}
			if f.Target == model.CanonicalVendorColumn || f.Target == model.CanonicalGeometryColumn {
				return fmt.Errorf("merge mapping for %s must not map %q", m.Vendor, f.Target)
			}
			if len(f.Sources) == 0 {
				return fmt.Errorf("merge mapping for %s column %q has no source", m.Vendor, f.Target)
			}
		}
	}

	live, err := r.liveColumnOrder(ctx)
	if err != nil {
		return err
	}
	position := make(map[string]int, len(live))
	for i, name := range live {
		position[name] = i
	}

	last := -1
	for _, c := range model.CanonicalColumns {
		pos, ok := position[c.Name]
		if !ok {
			return fmt.Errorf("%s is missing column %q", model.CanonicalTable, c.Name)
		}
		if pos < last {
			return fmt.Errorf("%s column %q is out of order", model.CanonicalTable, c.Name)
		}
		last = pos
	}
	return nil
}

// liveColumnOrder 按表中实际顺序返回列名
func (r *CanonicalRepository) liveColumnOrder(ctx context.Context) ([]string, error) {
	rows, err := r.db.WithContext(ctx).Table(model.CanonicalTable).Limit(1).Rows()
	if err != nil {
		return nil, fmt.Errorf("read %s columns: %w", model.CanonicalTable, err)
	}
	defer rows.Close()
	return rows.Columns()
}

// InsertRows 在一个事务中写入全部行；失败回滚，不留部分数据
func (r *CanonicalRepository) InsertRows(ctx context.Context, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(model.CanonicalTable).CreateInBatches(rows, insertBatchSize).Error
	})
}
