package lotek

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bcgov/bctw-api/internal/adapter"
	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// dtStartLayout dtStart 参数格式（无时区）
const dtStartLayout = "2006-01-02T15:04:05"

type Adapter struct {
	cfg     *config.VendorConfig
	session *Session
	base    http.RoundTripper
	timeout time.Duration
	logger  *logrus.Logger
	nowFunc func() time.Time

	mu     sync.RWMutex
	client *http.Client // 本次运行已鉴权的客户端，Authenticate 后才有值
}

// NewAdapter Lotek 适配器工厂
func NewAdapter(cfg *config.VendorConfig, creds interfaces.CredentialStore, logger *logrus.Logger) interfaces.VendorAdapter {
	plain := httpclient.NewHTTPClient(cfg, logger)
	return &Adapter{
		cfg:     cfg,
		session: NewSession(cfg, plain, creds, logger),
		base:    plain.Transport,
		timeout: plain.Timeout,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (a *Adapter) GetType() model.VendorType { return model.VendorLotek }

func (a *Adapter) Capabilities() []model.Capability { return Capabilities() }

func (a *Adapter) MergeMapping() model.MergeMapping { return MergeMapping() }

// Authenticate 登录并为本次运行创建带 Bearer 令牌的客户端。
// 失败返回 *model.AuthError，调用方应跳过 Lotek 的本次拉取。
func (a *Adapter) Authenticate(ctx context.Context) error {
	tok, err := a.session.Login(ctx)
	if err != nil {
		return err
	}
	client := &http.Client{
		Timeout: a.timeout,
		Transport: &oauth2.Transport{
			Source: a.session.TokenSource(ctx, tok),
			Base:   a.base,
		},
	}
	a.mu.Lock()
	a.client = client
	a.mu.Unlock()
	return nil
}

// FetchCapability 调用一个能力接口
func (a *Adapter) FetchCapability(ctx context.Context, device model.Device, capability model.Capability) model.CapabilityResponse {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return model.CapabilityResponse{
			Capability: capability,
			Status:     model.StatusFailed,
			Err: &model.TransportError{
				Vendor:     model.VendorLotek,
				DeviceID:   device.DeviceID,
				Capability: capability.Name,
				Err:        fmt.Errorf("not authenticated"),
			},
		}
	}
	return adapter.Fetch(ctx, client, model.VendorLotek, device, capability, a.capabilityURL(device, capability))
}

func (a *Adapter) capabilityURL(device model.Device, capability model.Capability) string {
	base := strings.TrimRight(a.cfg.BaseURL, "/")
	switch capability.Name {
	case CapabilityPosition:
		q := url.Values{}
		q.Set("deviceId", device.DeviceID)
		if a.cfg.PositionLookbackDays > 0 {
			start := a.nowFunc().UTC().AddDate(0, 0, -a.cfg.PositionLookbackDays)
			q.Set("dtStart", start.Format(dtStartLayout))
		}
		return base + capability.Path + "?" + q.Encode()
	default:
		return base + capability.Path + "/" + url.PathEscape(device.DeviceID)
	}
}
