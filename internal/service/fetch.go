package service

import (
	"context"
	"time"

	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/schema"

	"github.com/sirupsen/logrus"
)

// 厂商注入到每个暂存对象中的键（载荷中已有同名键时不覆盖）
const (
	InjectedDeviceIDKey  = "device_id"
	InjectedFetchedAtKey = "fetched_at"
)

// FetchService 拉取阶段：鉴权、读设备列表，逐设备逐能力调用并落库
type FetchService struct {
	devices interfaces.DeviceRegistry
	logger  *logrus.Logger
}

func NewFetchService(devices interfaces.DeviceRegistry, logger *logrus.Logger) *FetchService {
	return &FetchService{devices: devices, logger: logger}
}

// FetchVendor 执行一个厂商的拉取阶段，统计写入 report。
// 鉴权失败、读注册表失败或 ctx 取消时返回错误，终止该厂商；单次调用或单表写入失败只记录并继续。
func (s *FetchService) FetchVendor(ctx context.Context, runID string, fetchedAt time.Time, adapter interfaces.VendorAdapter, staging interfaces.StagingStore, report *model.VendorReport) error {
	vendor := adapter.GetType()
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "vendor": vendor})

	report.Stage = model.StageAuth
	if err := adapter.Authenticate(ctx); err != nil {
		return err
	}

	report.Stage = model.StageRegistry
	devices, err := s.devices.ListDevices(ctx, vendor)
	if err != nil {
		return err
	}
	report.Devices = len(devices)
	log.WithField("devices", len(devices)).Info("device registry loaded")

	report.Stage = model.StageFetch
	capabilities := adapter.Capabilities()
	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			return err
		}
		devLog := log.WithField("device_id", device.DeviceID)

		gotData := false
		for _, capability := range capabilities {
			res := adapter.FetchCapability(ctx, device, capability)
			capLog := devLog.WithField("capability", capability.Name)

			switch res.Status {
			case model.StatusData:
				gotData = true
				objects := injectKeys(res.Objects, device.DeviceID, fetchedAt)
				n, err := staging.Persist(ctx, capability, objects)
				if err != nil {
					report.PersistFailures++
					capLog.WithError(err).Error("failed to persist payload")
					continue
				}
				report.PayloadsPersisted++
				report.RowsStaged += n
				capLog.WithField("rows", n).Debug("payload staged")
			case model.StatusEmpty:
				report.Empty++
				capLog.Debug("no records")
			case model.StatusNotFound:
				report.NotFound++
				capLog.WithField("status", res.StatusCode).Debug("device not found for capability")
			default:
				report.TransportFailures++
				capLog.WithError(res.Err).Warn("capability call failed")
			}
		}

		if gotData {
			report.DevicesWithData++
		} else {
			report.DevicesAllFailed++
			devLog.Warn("all calls failed for this device")
		}
	}
	return nil
}

// injectKeys 返回补充了 device_id、fetched_at 的对象副本；按规范化后的键判断载荷中是否已有
func injectKeys(objects []map[string]interface{}, deviceID string, fetchedAt time.Time) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(objects))
	for _, obj := range objects {
		cp := make(map[string]interface{}, len(obj)+2)
		hasDevice, hasFetched := false, false
		for k, v := range obj {
			cp[k] = v
			switch schema.NormalizeKey(k) {
			case InjectedDeviceIDKey:
				hasDevice = true
			case InjectedFetchedAtKey:
				hasFetched = true
			}
		}
		if !hasDevice {
			cp[InjectedDeviceIDKey] = deviceID
		}
		if !hasFetched {
			cp[InjectedFetchedAtKey] = fetchedAt
		}
		out = append(out, cp)
	}
	return out
}
