package model

import "time"

// ColumnType 暂存表/宽表列的逻辑类型，具体 SQL 类型由方言决定
type ColumnType string

const (
	ColumnText      ColumnType = "text"
	ColumnNumeric   ColumnType = "numeric"
	ColumnInteger   ColumnType = "integer"
	ColumnBoolean   ColumnType = "boolean"
	ColumnTimestamp ColumnType = "timestamp"
	ColumnJSON      ColumnType = "json"
	ColumnGeometry  ColumnType = "geometry"
)

// StagingColumn 暂存表结构迁移记录：每次新增列写一条，version 按表递增
type StagingColumn struct {
	ID           uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	StagingTable string     `gorm:"column:table_name;type:varchar(63);not null;uniqueIndex:uq_staging_table_column"`
	ColumnName   string     `gorm:"column:column_name;type:varchar(63);not null;uniqueIndex:uq_staging_table_column"`
	ColumnType   ColumnType `gorm:"column:column_type;type:varchar(16);not null"`
	Version      int        `gorm:"column:version;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (StagingColumn) TableName() string { return "staging_schema_migrations" }
