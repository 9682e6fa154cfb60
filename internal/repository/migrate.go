package repository

import (
	"context"
	"fmt"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate 只迁移本任务拥有的固定结构表（暂存表结构迁移记录）。
// 注册表和凭据表归外部系统所有，不在这里改动。
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.StagingColumn{}); err != nil {
		return fmt.Errorf("migrate staging_schema_migrations: %w", err)
	}
	return nil
}

// BootstrapRegistry 在空库上建出注册表和凭据表（开发/测试环境）。
// 已存在的表原样保留：不加列、不加主键、不改类型。
func BootstrapRegistry(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	m := db.WithContext(ctx).Migrator()
	for _, table := range []interface{}{
		&model.LotekCredential{},
		&model.LotekCollar{},
		&model.VectronicCollar{},
	} {
		if m.HasTable(table) {
			continue
		}
		if err := m.CreateTable(table); err != nil {
			return fmt.Errorf("create registry table: %w", err)
		}
		logger.WithField("model", fmt.Sprintf("%T", table)).Info("registry table created")
	}
	return nil
}
