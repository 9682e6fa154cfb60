package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bcgov/bctw-api/internal/model"
)

// maxBodyBytes 单次响应体读取上限
const maxBodyBytes = 64 << 20

// Fetch 发起一次能力接口 GET 请求并对结果分类：
//   - 400/404/410：设备在该接口下无记录（StatusNotFound）
//   - 2xx 且响应体为空、null、{} 或 []：StatusEmpty
//   - 2xx 且为 JSON 对象或对象数组：StatusData
//   - 其余（网络错误、超时、其他状态码、无法解析）：StatusFailed，Err 为 *model.TransportError
func Fetch(ctx context.Context, client *http.Client, vendor model.VendorType, device model.Device, capability model.Capability, rawURL string) model.CapabilityResponse {
	res := model.CapabilityResponse{Capability: capability}
	fail := func(code int, err error) model.CapabilityResponse {
		res.Status = model.StatusFailed
		res.StatusCode = code
		res.Err = &model.TransportError{
			Vendor:     vendor,
			DeviceID:   device.DeviceID,
			Capability: capability.Name,
			StatusCode: code,
			Err:        redactURLError(err),
		}
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		res.Status = model.StatusNotFound
		return res
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	objects, err := DecodeObjects(body)
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	if len(objects) == 0 {
		res.Status = model.StatusEmpty
		return res
	}
	res.Status = model.StatusData
	res.Objects = objects
	return res
}

// redactURLError 去掉 *url.Error 中地址的查询串：Vectronic 的 collarkey 在查询串里，错误会进日志
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	redacted.URL = RedactURL(urlErr.URL)
	if urlErr == err {
		return &redacted
	}
	return fmt.Errorf("%s %q: %w", redacted.Op, redacted.URL, redacted.Err)
}

// RedactURL 返回不含查询串和用户信息的地址，用于日志和错误信息
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid url)"
	}
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	return u.String()
}

// DecodeObjects 将响应体解析为对象列表；单个对象包装为长度 1 的列表，空响应返回 nil。
// 数字保留为 json.Number，避免大整数丢精度。
func DecodeObjects(body []byte) ([]map[string]interface{}, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode body: trailing data after JSON value")
	}

	switch v := payload.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		if len(v) == 0 {
			return nil, nil
		}
		return []map[string]interface{}{v}, nil
	case []interface{}:
		objects := make([]map[string]interface{}, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("decode body: element %d is %T, not an object", i, item)
			}
			if len(obj) > 0 {
				objects = append(objects, obj)
			}
		}
		return objects, nil
	default:
		return nil, fmt.Errorf("decode body: unexpected %T payload", payload)
	}
}
