package lotek

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// tokenExpiryDelta 提前一分钟视为过期，避免请求途中令牌失效
const tokenExpiryDelta = time.Minute

// Session Lotek 账号会话：用库中（或环境变量中）的账号密码登录，持有访问令牌与刷新令牌
type Session struct {
	cfg     *config.VendorConfig
	client  *http.Client // 登录/刷新用的普通客户端，不带鉴权
	creds   interfaces.CredentialStore
	logger  *logrus.Logger
	nowFunc func() time.Time

	mu       sync.Mutex
	username string
}

// tokenResponse 登录/刷新接口的响应
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    json.Number `json:"expires_in"`
}

// NewSession 创建会话，尚未登录
func NewSession(cfg *config.VendorConfig, client *http.Client, creds interfaces.CredentialStore, logger *logrus.Logger) *Session {
	return &Session{
		cfg:     cfg,
		client:  client,
		creds:   creds,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Login 用账号密码换取令牌（grant_type=password），一次调用不重试
func (s *Session) Login(ctx context.Context) (*oauth2.Token, error) {
	username, password, err := s.credentials(ctx)
	if err != nil {
		return nil, &model.AuthError{Vendor: model.VendorLotek, Err: err}
	}
	s.mu.Lock()
	s.username = username
	s.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	tok, err := s.exchange(ctx, form)
	if err != nil {
		return nil, &model.AuthError{Vendor: model.VendorLotek, Err: fmt.Errorf("login: %w", err)}
	}
	s.logger.WithFields(logrus.Fields{
		"vendor": model.VendorLotek,
		"expiry": tok.Expiry,
	}).Info("lotek login succeeded")
	return tok, nil
}

// Refresh 用刷新令牌换取新令牌（grant_type=refresh_token）。
// 刷新请求需要带上登录时的用户名。
func (s *Session) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	s.mu.Lock()
	username := s.username
	s.mu.Unlock()
	if username == "" {
		return nil, &model.AuthError{Vendor: model.VendorLotek, Err: fmt.Errorf("refresh before login")}
	}
	if refreshToken == "" {
		return nil, &model.AuthError{Vendor: model.VendorLotek, Err: fmt.Errorf("no refresh token held")}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("username", username)
	form.Set("refresh_token", refreshToken)

	tok, err := s.exchange(ctx, form)
	if err != nil {
		return nil, &model.AuthError{Vendor: model.VendorLotek, Err: fmt.Errorf("refresh: %w", err)}
	}
	// 服务端未轮换刷新令牌时沿用旧值
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	s.logger.WithField("vendor", model.VendorLotek).Info("lotek token refreshed")
	return tok, nil
}

// TokenSource 返回绑定 ctx 的令牌源：首次返回 initial，过期后优先刷新，刷新失败再重新登录
func (s *Session) TokenSource(ctx context.Context, initial *oauth2.Token) oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(initial, &sessionSource{ctx: ctx, session: s, last: initial}, tokenExpiryDelta)
}

type sessionSource struct {
	ctx     context.Context
	session *Session

	mu   sync.Mutex
	last *oauth2.Token
}

// Token 只在 ReuseTokenSource 判定令牌过期时被调用
func (src *sessionSource) Token() (*oauth2.Token, error) {
	src.mu.Lock()
	defer src.mu.Unlock()

	if src.last != nil && src.last.RefreshToken != "" {
		tok, err := src.session.Refresh(src.ctx, src.last.RefreshToken)
		if err == nil {
			src.last = tok
			return tok, nil
		}
		src.session.logger.WithError(err).Warn("lotek token refresh failed, logging in again")
	}

	tok, err := src.session.Login(src.ctx)
	if err != nil {
		return nil, err
	}
	src.last = tok
	return tok, nil
}

func (s *Session) credentials(ctx context.Context) (string, string, error) {
	if s.cfg.Username != "" && s.cfg.Password != "" {
		return s.cfg.Username, s.cfg.Password, nil
	}
	if s.creds == nil {
		return "", "", fmt.Errorf("no credentials configured")
	}
	c, err := s.creds.LotekCredential(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load stored credentials: %w", err)
	}
	if c == nil || c.Username == "" || c.Password == "" {
		return "", "", fmt.Errorf("stored credentials are empty")
	}
	return c.Username, c.Password, nil
}

func (s *Session) exchange(ctx context.Context, form url.Values) (*oauth2.Token, error) {
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/user/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	tok := &oauth2.Token{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		TokenType:    "Bearer",
	}
	if secs, err := body.ExpiresIn.Int64(); err == nil && secs > 0 {
		tok.Expiry = s.nowFunc().Add(time.Duration(secs) * time.Second)
	}
	return tok, nil
}
