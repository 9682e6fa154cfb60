package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bcgov/bctw-api/internal/adapter/lotek"
	"github.com/bcgov/bctw-api/internal/adapter/vectronic"
	"github.com/bcgov/bctw-api/internal/config"
	"github.com/bcgov/bctw-api/internal/geo"
	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	fakeAccessToken = "access-7f3c9e"
	fakeCollarKey   = "KEY-D2"
)

// fakeLotekAPI D1 有定位、无设备信息；其余设备都是 404
func fakeLotekAPI(t *testing.T, loginStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		if loginStatus != http.StatusOK {
			w.WriteHeader(loginStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  fakeAccessToken,
			"refresh_token": "ref",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/gps", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fakeAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("deviceId") != "D1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"lat":52.1,"lon":-120.3,"mainv":3.9}`))
	})
	mux.HandleFunc("/devices/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeVectronicAPI D2 的 gps 接口直接断开连接，activity 有数据，其余能力 404
func fakeVectronicAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("collarkey") != fakeCollarKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/D2/gps":
			conn, _, err := w.(http.Hijacker).Hijack()
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = conn.Close()
		case "/D2/act":
			_, _ = w.Write([]byte(`[{"idCollar":"D2","activity1":12,"acquisitionTime":"2021-05-01T12:00:00"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// emptyRegistry 所有厂商都没有登记设备
type emptyRegistry struct{}

func (emptyRegistry) ListDevices(context.Context, model.VendorType) ([]model.Device, error) {
	return nil, nil
}

type pipelineFixture struct {
	db       *gorm.DB
	pipeline *Pipeline
	hook     *test.Hook
}

func newPipelineFixture(t *testing.T, loginStatus int, lotekDevices ...string) *pipelineFixture {
	t.Helper()
	db := newTestDB(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	require.NoError(t, db.Create(&model.LotekCredential{Username: "bctw", Password: "pw"}).Error)
	for _, id := range lotekDevices {
		require.NoError(t, db.Create(&model.LotekCollar{DeviceID: id}).Error)
	}
	require.NoError(t, db.Create(&model.VectronicCollar{IDCollar: "D2", CollarKey: fakeCollarKey}).Error)

	lotekCfg := config.VendorConfig{BaseURL: fakeLotekAPI(t, loginStatus).URL}
	vectronicCfg := config.VendorConfig{BaseURL: fakeVectronicAPI(t).URL}
	adapters := []interfaces.VendorAdapter{
		lotek.NewAdapter(&lotekCfg, repository.NewCredentialRepository(db), logger),
		vectronic.NewAdapter(&vectronicCfg, nil, logger),
	}

	p := NewPipeline(
		adapters,
		NewFetchService(repository.NewDeviceRepository(db, logger), logger),
		NewMergeService(newCanonicalRepo(t, db, logger), logger),
		func() interfaces.StagingStore { return repository.NewStagingRepository(db, logger) },
		logger,
	)
	return &pipelineFixture{db: db, pipeline: p, hook: hook}
}

func (f *pipelineFixture) count(t *testing.T, table string) int64 {
	t.Helper()
	if !f.db.Migrator().HasTable(table) {
		return 0
	}
	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}

func vendorReport(t *testing.T, r *model.RunReport, v model.VendorType) *model.VendorReport {
	t.Helper()
	for _, vr := range r.Vendors {
		if vr.Vendor == v {
			return vr
		}
	}
	t.Fatalf("no report for %s", v)
	return nil
}

func TestPipelineRun(t *testing.T) {
	f := newPipelineFixture(t, http.StatusOK, "D1")

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StageDone, report.Stage)
	assert.NotEmpty(t, report.RunID)

	// Lotek：一条定位，设备信息 404
	assert.EqualValues(t, 1, f.count(t, lotek.PositionTable))
	assert.EqualValues(t, 0, f.count(t, lotek.DeviceInfoTable))
	lr := vendorReport(t, report, model.VendorLotek)
	assert.Equal(t, model.StageDone, lr.Stage)
	assert.Equal(t, 1, lr.Devices)
	assert.Equal(t, 1, lr.DevicesWithData)
	assert.Equal(t, 1, lr.NotFound)
	assert.Equal(t, 1, lr.MergedRows)

	rows := canonicalRows(t, f.db)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "Lotek", row["device_vendor"])
	assert.Equal(t, "D1", row["device_id"])
	assert.Equal(t, 52.1, row["latitude"])
	assert.Equal(t, -120.3, row["longitude"])
	assert.Equal(t, 3.9, row["main_voltage"])
	lon, lat, _, err := geo.DecodePoint(row["geom"].(string))
	require.NoError(t, err)
	assert.Equal(t, -120.3, lon)
	assert.Equal(t, 52.1, lat)
	for _, col := range []string{"sat_count", "origin_code", "vendor_record_id", "scts", "position_error"} {
		assert.Nil(t, row[col], col)
	}

	// Vectronic：gps 失败不产生宽表行，activity 照常落库
	vr := vendorReport(t, report, model.VendorVectronic)
	assert.Equal(t, model.StageDone, vr.Stage)
	assert.Equal(t, 1, vr.TransportFailures)
	assert.Equal(t, 5, vr.NotFound)
	assert.Equal(t, 1, vr.PayloadsPersisted)
	assert.Equal(t, 0, vr.MergedRows)
	assert.EqualValues(t, 0, f.count(t, vectronic.GPSTable))
	assert.EqualValues(t, 1, f.count(t, "api_gpsplusx_device_activity_data"))

	var staged []map[string]interface{}
	require.NoError(t, f.db.Table("api_gpsplusx_device_activity_data").Find(&staged).Error)
	assert.Equal(t, "D2", staged[0]["device_id"])
	assert.NotNil(t, staged[0]["fetched_at"])

	assert.True(t, report.Degraded())

	// 密钥和令牌不得出现在任何日志里
	entries := f.hook.AllEntries()
	require.NotEmpty(t, entries)
	for _, e := range entries {
		line, err := e.String()
		require.NoError(t, err)
		for _, secret := range []string{fakeCollarKey, fakeAccessToken} {
			assert.NotContains(t, line, secret, e.Message)
		}
	}
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, http.StatusOK, "D1")

	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	_, err = f.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.count(t, lotek.PositionTable))
	assert.EqualValues(t, 1, f.count(t, "api_gpsplusx_device_activity_data"))
	assert.Len(t, canonicalRows(t, f.db), 1)
}

func TestPipelineLogsAllFailedDeviceOnce(t *testing.T) {
	f := newPipelineFixture(t, http.StatusOK, "D1", "D3")

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	var hits int
	for _, e := range f.hook.AllEntries() {
		if e.Message == "all calls failed for this device" && e.Data["device_id"] == "D3" {
			hits++
		}
	}
	assert.Equal(t, 1, hits)

	lr := vendorReport(t, report, model.VendorLotek)
	assert.Equal(t, 2, lr.Devices)
	assert.Equal(t, 1, lr.DevicesAllFailed)
	assert.Equal(t, 1, lr.MergedRows)
}

func TestPipelineAuthFailureSkipsOnlyThatVendor(t *testing.T) {
	f := newPipelineFixture(t, http.StatusUnauthorized, "D1")

	report, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	lr := vendorReport(t, report, model.VendorLotek)
	assert.Equal(t, model.StageAuth, lr.Stage)
	assert.Contains(t, lr.Error, "authentication failed")
	assert.EqualValues(t, 0, f.count(t, lotek.PositionTable))

	vr := vendorReport(t, report, model.VendorVectronic)
	assert.Empty(t, vr.Error)
	assert.EqualValues(t, 1, f.count(t, "api_gpsplusx_device_activity_data"))
}

func TestPipelineTruncateFailureIsFatal(t *testing.T) {
	logger, _ := test.NewNullLogger()
	staging := &stubStaging{truncateErr: errors.New("permission denied")}
	p := NewPipeline(nil, NewFetchService(nil, logger), NewMergeService(nil, logger),
		func() interfaces.StagingStore { return staging }, logger)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "permission denied"))
	assert.Equal(t, model.StageTruncate, report.Stage)
}

func TestPipelineTruncatesStagingAndCanonicalTables(t *testing.T) {
	logger, _ := test.NewNullLogger()
	staging := &stubStaging{}
	adapters := []interfaces.VendorAdapter{vectronic.NewAdapter(&config.VendorConfig{BaseURL: "http://127.0.0.1:1"}, nil, logger)}
	p := NewPipeline(adapters, NewFetchService(emptyRegistry{}, logger), NewMergeService(nil, logger),
		func() interfaces.StagingStore { return staging }, logger)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, staging.truncated, 8)
	assert.Contains(t, staging.truncated, vectronic.GPSTable)
	assert.Contains(t, staging.truncated, model.CanonicalTable)
}

func TestPipelineRejectsOverlappingRun(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewPipeline(nil, NewFetchService(nil, logger), NewMergeService(nil, logger),
		func() interfaces.StagingStore { return &stubStaging{} }, logger)

	p.mu.Lock()
	_, err := p.Run(context.Background())
	p.mu.Unlock()
	assert.ErrorIs(t, err, model.ErrRunInProgress)

	_, err = p.Run(context.Background())
	assert.NoError(t, err)
}
