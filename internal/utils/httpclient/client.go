package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bcgov/bctw-api/internal/config"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout 厂商未配置超时时使用
const DefaultTimeout = 30 * time.Second

// NewHTTPClient 厂商HTTP客户端（支持代理、超时、自动解压）
func NewHTTPClient(cfg *config.VendorConfig, logger *logrus.Logger) *http.Client {
	timeout := DefaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(cfg, logger),
	}
}

// NewTransport 带代理和gzip解压的底层 RoundTripper，供需要再包一层鉴权的厂商使用
func NewTransport(cfg *config.VendorConfig, logger *logrus.Logger) http.RoundTripper {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	// 配置代理
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", cfg.Proxy).Warn("proxy url invalid, connecting directly")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", proxyURL.Host).Info("vendor http client uses proxy")
		}
	}

	return &gzipTransport{transport: transport, logger: logger}
}

type gzipTransport struct {
	transport http.RoundTripper
	logger    *logrus.Logger
}

func (c *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get("Content-Encoding") != "gzip" {
		return resp, nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		c.logger.WithError(err).Warn("gzip decode failed, returning raw body")
		return resp, nil
	}
	resp.Body = &gzipReadCloser{Reader: gz, body: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.ContentLength = -1
	return resp, nil
}

// gzipReadCloser 关闭时同时关闭解压 reader 和原始响应体
type gzipReadCloser struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		_ = g.body.Close()
		return err
	}
	return g.body.Close()
}
