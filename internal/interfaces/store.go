package interfaces

import (
	"context"

	"github.com/bcgov/bctw-api/internal/model"
)

// DeviceRegistry 设备注册表（只读）
type DeviceRegistry interface {
	ListDevices(ctx context.Context, vendor model.VendorType) ([]model.Device, error)
}

// CredentialStore 厂商账号凭据（只读）
type CredentialStore interface {
	LotekCredential(ctx context.Context) (*model.LotekCredential, error)
}

// StagingStore 动态结构暂存表
type StagingStore interface {
	// Persist 按需建表/加列后写入一批对象，返回写入行数
	Persist(ctx context.Context, capability model.Capability, objects []map[string]interface{}) (int, error)
	// Truncate 清空存在的表；不存在的表跳过
	Truncate(ctx context.Context, tables []string) error
	// ReadRows 按写入顺序读取整张表，表不存在时返回空
	ReadRows(ctx context.Context, table string) ([]map[string]interface{}, error)
}

// CanonicalStore 多厂商归并宽表
type CanonicalStore interface {
	EnsureSchema(ctx context.Context) error
	ValidateSchema(ctx context.Context, mappings []model.MergeMapping) error
	// InsertRows 在一个事务中写入全部行，失败时不留部分数据
	InsertRows(ctx context.Context, rows []map[string]interface{}) error
}
