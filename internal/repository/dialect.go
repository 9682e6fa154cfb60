package repository

import (
	"strings"

	"github.com/bcgov/bctw-api/internal/model"

	"gorm.io/gorm"
)

const dialectPostgres = "postgres"

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == dialectPostgres
}

// quote 按方言给标识符加引号
func quote(db *gorm.DB, name string) string {
	var b strings.Builder
	db.Dialector.QuoteTo(&b, name)
	return b.String()
}

// sqlType 逻辑列类型对应的建表类型。测试用的 SQLite 没有 jsonb/geometry，按文本存储。
func sqlType(db *gorm.DB, t model.ColumnType) string {
	if isPostgres(db) {
		switch t {
		case model.ColumnNumeric:
			return "double precision"
		case model.ColumnInteger:
			return "bigint"
		case model.ColumnBoolean:
			return "boolean"
		case model.ColumnTimestamp:
			return "timestamptz"
		case model.ColumnJSON:
			return "jsonb"
		case model.ColumnGeometry:
			return "geometry(Point,4326)"
		default:
			return "text"
		}
	}
	switch t {
	case model.ColumnNumeric:
		return "REAL"
	case model.ColumnInteger:
		return "INTEGER"
	case model.ColumnBoolean:
		return "BOOLEAN"
	case model.ColumnTimestamp:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// surrogateKeyDDL 暂存表自增主键列定义
func surrogateKeyDDL(db *gorm.DB, name string) string {
	if isPostgres(db) {
		return quote(db, name) + " bigserial PRIMARY KEY"
	}
	return quote(db, name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}
