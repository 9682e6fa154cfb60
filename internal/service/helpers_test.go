package service

import (
	"context"
	"testing"

	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(context.Background(), db))
	silent, _ := test.NewNullLogger()
	require.NoError(t, repository.BootstrapRegistry(context.Background(), db, silent))
	return db
}

func newCanonicalRepo(t *testing.T, db *gorm.DB, logger *logrus.Logger) *repository.CanonicalRepository {
	t.Helper()
	repo := repository.NewCanonicalRepository(db, logger)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func canonicalRows(t *testing.T, db *gorm.DB) []map[string]interface{} {
	t.Helper()
	var rows []map[string]interface{}
	require.NoError(t, db.Table(model.CanonicalTable).Order("device_vendor, device_id").Find(&rows).Error)
	return rows
}

// stubStaging 内存中的暂存表，仅用于归并与编排测试
type stubStaging struct {
	rows        map[string][]map[string]interface{}
	truncateErr error
	truncated   []string
}

func (s *stubStaging) Persist(_ context.Context, c model.Capability, objects []map[string]interface{}) (int, error) {
	if s.rows == nil {
		s.rows = make(map[string][]map[string]interface{})
	}
	s.rows[c.Table] = append(s.rows[c.Table], objects...)
	return len(objects), nil
}

func (s *stubStaging) Truncate(_ context.Context, tables []string) error {
	if s.truncateErr != nil {
		return s.truncateErr
	}
	s.truncated = append(s.truncated, tables...)
	return nil
}

func (s *stubStaging) ReadRows(_ context.Context, table string) ([]map[string]interface{}, error) {
	return s.rows[table], nil
}
