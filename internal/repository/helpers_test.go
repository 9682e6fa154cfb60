package repository

import (
	"context"
	"testing"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB 每个测试独立的空内存库；单连接保证库在测试期间不被回收
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// newTestDB 与启动流程一致的库：迁移记录表加上自建的注册表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
	silent, _ := test.NewNullLogger()
	require.NoError(t, BootstrapRegistry(context.Background(), db, silent))
	return db
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// countRows 表中的行数，表不存在时为 0
func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	if !db.Migrator().HasTable(table) {
		return 0
	}
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

// countCanonical 宽表中某厂商标识的行数
func countCanonical(t *testing.T, db *gorm.DB, tag string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(model.CanonicalTable).Where("device_vendor = ?", tag).Count(&n).Error)
	return n
}
