package vectronic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities(t *testing.T) {
	caps := Capabilities()
	require.Len(t, caps, 7)

	var names, tables []string
	for _, c := range caps {
		names = append(names, c.Name)
		tables = append(tables, c.Table)
	}
	assert.Equal(t, []string{"mortality_implant", "vaginal_implant", "separation", "proximity", "activity", "gps", "mortality"}, names)
	assert.Contains(t, tables, GPSTable)
	assert.Contains(t, tables, "api_gpsplusx_device_vaginal_implant_data")

	// 定位字段的类型声明只挂在 gps 能力上
	assert.Equal(t, model.ColumnNumeric, caps[5].Fields["latitude"])
	_, ok := caps[4].Fields["latitude"]
	assert.False(t, ok)
}

func TestCapabilityURL(t *testing.T) {
	caps := Capabilities()
	raw := CapabilityURL("https://vectronic.example/v2/collar/", model.Device{DeviceID: "D2", CollarKey: "ab/c+d"}, caps[5])

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/v2/collar/D2/gps", u.Path)
	assert.Equal(t, "ab/c+d", u.Query().Get("collarkey"))
}

func TestFetchSendsCollarKey(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("collarkey")
		_, _ = w.Write([]byte(`[{"idPosition":1,"latitude":50.5,"longitude":-119.2}]`))
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	a := NewAdapter(&config.VendorConfig{BaseURL: srv.URL}, nil, logger)
	require.NoError(t, a.Authenticate(context.Background()))

	res := a.FetchCapability(context.Background(), model.Device{DeviceID: "D2", CollarKey: "KEY"}, Capabilities()[5])
	assert.Equal(t, model.StatusData, res.Status)
	assert.Equal(t, "/D2/gps", gotPath)
	assert.Equal(t, "KEY", gotKey)
}

func TestFetchWithoutCollarKeyFails(t *testing.T) {
	logger, _ := test.NewNullLogger()
	a := NewAdapter(&config.VendorConfig{BaseURL: "http://127.0.0.1:1"}, nil, logger)

	res := a.FetchCapability(context.Background(), model.Device{DeviceID: "D2"}, Capabilities()[0])
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchFailureDoesNotExposeCollarKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	a := NewAdapter(&config.VendorConfig{BaseURL: srv.URL}, nil, logger)

	res := a.FetchCapability(context.Background(), model.Device{DeviceID: "D2", CollarKey: "SECRET-KEY-123"}, Capabilities()[5])
	require.Equal(t, model.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.NotContains(t, res.Err.Error(), "SECRET-KEY-123")
	assert.Contains(t, res.Err.Error(), "D2")
}

func TestMappingTargetsAreCanonical(t *testing.T) {
	m := MergeMapping()
	assert.Equal(t, GPSTable, m.SourceTable)
	for _, f := range m.Fields {
		_, ok := model.CanonicalColumnType(f.Target)
		assert.True(t, ok, "target %s", f.Target)
	}
}
