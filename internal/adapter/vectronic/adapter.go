package vectronic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bcgov/bctw-api/internal/adapter"
	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Adapter Vectronic 没有账号级登录，每个设备用注册表中的 collarkey 鉴权
type Adapter struct {
	cfg        *config.VendorConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAdapter Vectronic 适配器工厂（不使用凭据存储）
func NewAdapter(cfg *config.VendorConfig, _ interfaces.CredentialStore, logger *logrus.Logger) interfaces.VendorAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

func (a *Adapter) GetType() model.VendorType { return model.VendorVectronic }

func (a *Adapter) Capabilities() []model.Capability { return Capabilities() }

func (a *Adapter) MergeMapping() model.MergeMapping { return MergeMapping() }

func (a *Adapter) Authenticate(context.Context) error { return nil }

// FetchCapability GET <base>/<idcollar>/<path>?collarkey=<key>
func (a *Adapter) FetchCapability(ctx context.Context, device model.Device, capability model.Capability) model.CapabilityResponse {
	if device.CollarKey == "" {
		return model.CapabilityResponse{
			Capability: capability,
			Status:     model.StatusFailed,
			Err: &model.TransportError{
				Vendor:     model.VendorVectronic,
				DeviceID:   device.DeviceID,
				Capability: capability.Name,
				Err:        fmt.Errorf("device has no collar key"),
			},
		}
	}
	return adapter.Fetch(ctx, a.httpClient, model.VendorVectronic, device, capability, CapabilityURL(a.cfg.BaseURL, device, capability))
}

// CapabilityURL 拼接能力接口地址；collarkey 只出现在查询串中，不写日志
func CapabilityURL(baseURL string, device model.Device, capability model.Capability) string {
	q := url.Values{}
	q.Set("collarkey", device.CollarKey)
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(device.DeviceID) + capability.Path + "?" + q.Encode()
}
