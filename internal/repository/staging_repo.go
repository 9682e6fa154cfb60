package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/schema"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize 单条 INSERT 的行数上限，避免超出参数个数限制
const insertBatchSize = 200

// StagingRepository 动态结构暂存表。
// 表和列按载荷的键按需创建，只增不删、不改类型；每次结构变更记录到 staging_schema_migrations。
// 实例只在一次运行内使用，列结构缓存随实例丢弃。
type StagingRepository struct {
	db     *gorm.DB
	logger *logrus.Logger

	mu      sync.Mutex
	columns map[string]map[string]model.ColumnType // 表 → 现有列（不含主键）
}

func NewStagingRepository(db *gorm.DB, logger *logrus.Logger) *StagingRepository {
	return &StagingRepository{
		db:      db,
		logger:  logger,
		columns: make(map[string]map[string]model.ColumnType),
	}
}

// Persist 将一批对象写入能力接口对应的暂存表。
// 建表、加列和写入在同一事务中完成；任何失败都返回 *model.PersistenceError，且不留下部分结果。
func (r *StagingRepository) Persist(ctx context.Context, capability model.Capability, objects []map[string]interface{}) (int, error) {
	if len(objects) == 0 {
		return 0, nil
	}
	table := capability.Table

	normalized := make([]map[string]interface{}, 0, len(objects))
	for _, obj := range objects {
		if n := schema.NormalizeObject(obj); len(n) > 0 {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return 0, nil
	}
	plan := schema.PlanColumns(normalized, capability.Fields)

	r.mu.Lock()
	defer r.mu.Unlock()

	var live map[string]model.ColumnType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.liveColumns(tx, table)
		if err != nil {
			return err
		}
		live, err = r.migrate(tx, table, existing, plan)
		if err != nil {
			return err
		}

		rows := make([]map[string]interface{}, 0, len(normalized))
		for i, obj := range normalized {
			row := make(map[string]interface{}, len(plan))
			for _, col := range plan {
				v, err := schema.Coerce(obj[col.Name], live[col.Name])
				if err != nil {
					return fmt.Errorf("row %d column %s: %w", i+1, col.Name, err)
				}
				row[col.Name] = v
			}
			rows = append(rows, row)
		}
		if err := tx.Table(table).CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
		return nil
	})
	if err != nil {
		// 事务已回滚，下次重新读取表结构
		delete(r.columns, table)
		return 0, &model.PersistenceError{Table: table, Err: err}
	}

	r.columns[table] = live
	return len(normalized), nil
}

// liveColumns 读取表的现有列，表不存在时返回 nil
func (r *StagingRepository) liveColumns(tx *gorm.DB, table string) (map[string]model.ColumnType, error) {
	if cols, ok := r.columns[table]; ok {
		return cols, nil
	}
	if !tx.Migrator().HasTable(table) {
		return nil, nil
	}
	types, err := tx.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	cols := make(map[string]model.ColumnType, len(types))
	for _, ct := range types {
		if ct.Name() == schema.SurrogateKey {
			continue
		}
		cols[ct.Name()] = schema.FromDatabaseType(ct.DatabaseTypeName())
	}
	return cols, nil
}

// migrate 建表或补齐缺少的列，返回变更后的列集合（不修改入参）
func (r *StagingRepository) migrate(tx *gorm.DB, table string, existing map[string]model.ColumnType, plan []schema.Column) (map[string]model.ColumnType, error) {
	live := make(map[string]model.ColumnType, len(existing)+len(plan))
	for k, v := range existing {
		live[k] = v
	}

	var added []schema.Column
	for _, col := range plan {
		if _, ok := live[col.Name]; !ok {
			added = append(added, col)
		}
	}
	if len(added) == 0 {
		return live, nil
	}

	if existing == nil {
		defs := []string{surrogateKeyDDL(tx, schema.SurrogateKey)}
		for _, col := range added {
			defs = append(defs, quote(tx, col.Name)+" "+sqlType(tx, col.Type))
		}
		ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quote(tx, table), strings.Join(defs, ", "))
		if err := tx.Exec(ddl).Error; err != nil {
			return nil, fmt.Errorf("create table: %w", err)
		}
	} else {
		for _, col := range added {
			ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(tx, table), quote(tx, col.Name), sqlType(tx, col.Type))
			if err := tx.Exec(ddl).Error; err != nil {
				return nil, fmt.Errorf("add column %s: %w", col.Name, err)
			}
		}
	}

	version, err := r.recordMigration(tx, table, added)
	if err != nil {
		return nil, err
	}
	for _, col := range added {
		live[col.Name] = col.Type
	}

	names := make([]string, 0, len(added))
	for _, col := range added {
		names = append(names, col.Name)
	}
	r.logger.WithFields(logrus.Fields{
		"table":   table,
		"version": version,
		"created": existing == nil,
		"columns": names,
	}).Info("staging table schema migrated")
	return live, nil
}

// recordMigration 以同一版本号记录本次新增的列，版本号按表递增
func (r *StagingRepository) recordMigration(tx *gorm.DB, table string, added []schema.Column) (int, error) {
	var current int
	if err := tx.Model(&model.StagingColumn{}).
		Where("table_name = ?", table).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error; err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	version := current + 1
	records := make([]model.StagingColumn, 0, len(added))
	for _, col := range added {
		records = append(records, model.StagingColumn{
			StagingTable: table,
			ColumnName:   col.Name,
			ColumnType:   col.Type,
			Version:      version,
		})
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_name"}, {Name: "column_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"column_type", "version"}),
	}).Create(&records).Error; err != nil {
		return 0, fmt.Errorf("record schema version: %w", err)
	}
	return version, nil
}

// Truncate 在一个事务中清空存在的表；不存在的表跳过
func (r *StagingRepository) Truncate(ctx context.Context, tables []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		for _, t := range tables {
			if tx.Migrator().HasTable(t) {
				existing = append(existing, t)
			}
		}
		if len(existing) == 0 {
			return nil
		}

		if isPostgres(tx) {
			quoted := make([]string, 0, len(existing))
			for _, t := range existing {
				quoted = append(quoted, quote(tx, t))
			}
			if err := tx.Exec("TRUNCATE TABLE " + strings.Join(quoted, ", ")).Error; err != nil {
				return fmt.Errorf("truncate %v: %w", existing, err)
			}
		} else {
			for _, t := range existing {
				if err := tx.Exec("DELETE FROM " + quote(tx, t)).Error; err != nil {
					return fmt.Errorf("delete from %s: %w", t, err)
				}
			}
		}
		r.logger.WithField("tables", existing).Info("tables truncated")
		return nil
	})
}

// ReadRows 按写入顺序读取整张表；表不存在时返回空
func (r *StagingRepository) ReadRows(ctx context.Context, table string) ([]map[string]interface{}, error) {
	db := r.db.WithContext(ctx)
	if !db.Migrator().HasTable(table) {
		return nil, nil
	}
	var rows []map[string]interface{}
	if err := db.Table(table).Order(schema.SurrogateKey).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return rows, nil
}
