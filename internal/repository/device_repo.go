package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeviceRepository 设备注册表读取（注册表由导入工具维护，这里只读）
type DeviceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewDeviceRepository(db *gorm.DB, logger *logrus.Logger) *DeviceRepository {
	return &DeviceRepository{db: db, logger: logger}
}

// ListDevices 按设备 ID 排序返回去重后的设备；读取失败返回 *model.RegistryError
func (r *DeviceRepository) ListDevices(ctx context.Context, vendor model.VendorType) ([]model.Device, error) {
	var (
		devices []model.Device
		err     error
	)
	switch vendor {
	case model.VendorLotek:
		devices, err = r.listLotek(ctx)
	case model.VendorVectronic:
		devices, err = r.listVectronic(ctx)
	default:
		err = fmt.Errorf("no device registry for vendor %q", vendor)
	}
	if err != nil {
		return nil, &model.RegistryError{Vendor: vendor, Err: err}
	}
	return dedupe(devices, vendor, r.logger), nil
}

func (r *DeviceRepository) listLotek(ctx context.Context) ([]model.Device, error) {
	var collars []model.LotekCollar
	if err := r.db.WithContext(ctx).Select("device_id").Order("device_id").Find(&collars).Error; err != nil {
		return nil, err
	}
	devices := make([]model.Device, 0, len(collars))
	for _, c := range collars {
		devices = append(devices, model.Device{DeviceID: c.DeviceID})
	}
	return devices, nil
}

func (r *DeviceRepository) listVectronic(ctx context.Context) ([]model.Device, error) {
	var collars []model.VectronicCollar
	if err := r.db.WithContext(ctx).Select("idcollar", "collarkey").Order("idcollar").Find(&collars).Error; err != nil {
		return nil, err
	}
	devices := make([]model.Device, 0, len(collars))
	for _, c := range collars {
		devices = append(devices, model.Device{DeviceID: c.IDCollar, CollarKey: strings.TrimSpace(c.CollarKey)})
	}
	return devices, nil
}

// dedupe 去掉空 ID 和重复 ID（保留第一条）
func dedupe(devices []model.Device, vendor model.VendorType, logger *logrus.Logger) []model.Device {
	seen := make(map[string]struct{}, len(devices))
	out := devices[:0]
	for _, d := range devices {
		d.DeviceID = strings.TrimSpace(d.DeviceID)
		if d.DeviceID == "" {
			logger.WithField("vendor", vendor).Warn("registry row without device id skipped")
			continue
		}
		if _, ok := seen[d.DeviceID]; ok {
			continue
		}
		seen[d.DeviceID] = struct{}{}
		out = append(out, d)
	}
	return out
}
