package adapter

import (
	"fmt"

	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
)

// VendorRegistry 已启用厂商的适配器实例，按 sync.enabled_vendors 的顺序保存
type VendorRegistry struct {
	logger   *logrus.Logger
	order    []model.VendorType
	adapters map[model.VendorType]interfaces.VendorAdapter
}

// NewVendorRegistry 按配置中启用的厂商，从工厂函数表创建适配器实例。
// 未知厂商、缺少工厂或缺少配置都视为配置错误。
func NewVendorRegistry(cfg *config.Config, factories map[model.VendorType]interfaces.Factory, creds interfaces.CredentialStore, logger *logrus.Logger) (*VendorRegistry, error) {
	r := &VendorRegistry{
		logger:   logger,
		adapters: make(map[model.VendorType]interfaces.VendorAdapter),
	}

	for _, name := range cfg.Sync.EnabledVendors {
		vendor, ok := model.ParseVendorType(name)
		if !ok {
			return nil, fmt.Errorf("unknown vendor %q in sync.enabled_vendors", name)
		}
		if _, dup := r.adapters[vendor]; dup {
			logger.WithField("vendor", vendor).Warn("vendor listed twice in sync.enabled_vendors, ignoring duplicate")
			continue
		}
		factory, ok := factories[vendor]
		if !ok {
			return nil, fmt.Errorf("no adapter factory for vendor %s", vendor)
		}
		vendorCfg, ok := cfg.Vendors[string(vendor)]
		if !ok || vendorCfg.BaseURL == "" {
			return nil, fmt.Errorf("vendors.%s.base_url is not configured", vendor)
		}

		ins := factory(&vendorCfg, creds, logger)
		if ins == nil || ins.GetType() != vendor {
			return nil, fmt.Errorf("adapter factory for %s returned a mismatched adapter", vendor)
		}
		r.adapters[vendor] = ins
		r.order = append(r.order, vendor)
		logger.WithField("vendor", vendor).Info("vendor adapter initialised")
	}
	return r, nil
}

// Adapters 按执行顺序返回适配器
func (r *VendorRegistry) Adapters() []interfaces.VendorAdapter {
	out := make([]interfaces.VendorAdapter, 0, len(r.order))
	for _, v := range r.order {
		out = append(out, r.adapters[v])
	}
	return out
}

// MergeMappings 所有已启用厂商的宽表映射，用于启动时校验宽表结构
func (r *VendorRegistry) MergeMappings() []model.MergeMapping {
	out := make([]model.MergeMapping, 0, len(r.order))
	for _, v := range r.order {
		out = append(out, r.adapters[v].MergeMapping())
	}
	return out
}

// StagingTables 所有已启用厂商的暂存表，按能力顺序
func (r *VendorRegistry) StagingTables() []string {
	var tables []string
	for _, v := range r.order {
		for _, c := range r.adapters[v].Capabilities() {
			tables = append(tables, c.Table)
		}
	}
	return tables
}
