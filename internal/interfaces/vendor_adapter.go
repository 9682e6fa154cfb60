package interfaces

import (
	"context"

	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
)

// VendorAdapter 所有厂商必须实现的核心接口
type VendorAdapter interface {
	GetType() model.VendorType        // 厂商类型
	Capabilities() []model.Capability // 按调用顺序排列的能力接口
	// Authenticate 拉取前的厂商级鉴权；无需鉴权的厂商直接返回 nil
	Authenticate(ctx context.Context) error
	// FetchCapability 对一个设备调用一个能力接口，失败体现在返回值的 Status/Err 中
	FetchCapability(ctx context.Context, device model.Device, capability model.Capability) model.CapabilityResponse
	MergeMapping() model.MergeMapping // 暂存 GPS 表到宽表的映射
}

// Factory 厂商适配器工厂函数签名
// 入参：厂商配置、凭据存储（不需要的厂商可忽略）、日志实例
type Factory func(cfg *config.VendorConfig, creds CredentialStore, logger *logrus.Logger) VendorAdapter
