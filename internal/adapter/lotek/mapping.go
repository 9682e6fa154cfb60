package lotek

import "github.com/bcgov/bctw-api/internal/model"

// Tag 写入宽表 device_vendor 的 Lotek 标识
const Tag = "Lotek"

// Lotek 能力接口
const (
	CapabilityPosition   = "position"
	CapabilityDeviceInfo = "device_info"
)

// Lotek 暂存表
const (
	PositionTable   = "api_lotex_device_position_data"
	DeviceInfoTable = "api_lotex_device_info"
)

// Capabilities 按调用顺序返回 Lotek 能力接口
func Capabilities() []model.Capability {
	return []model.Capability{
		{
			Name:  CapabilityPosition,
			Table: PositionTable,
			Path:  "/gps",
			Fields: map[string]model.ColumnType{
				"fetched_at":      model.ColumnTimestamp,
				"recdatetime":     model.ColumnTimestamp,
				"uploadtimestamp": model.ColumnTimestamp,
				"latitude":        model.ColumnNumeric,
				"longitude":       model.ColumnNumeric,
				"lat":             model.ColumnNumeric,
				"lon":             model.ColumnNumeric,
				"altitude":        model.ColumnNumeric,
				"ecefx":           model.ColumnNumeric,
				"ecefy":           model.ColumnNumeric,
				"ecefz":           model.ColumnNumeric,
				"pdop":            model.ColumnNumeric,
				"mainv":           model.ColumnNumeric,
				"bkupv":           model.ColumnNumeric,
				"temperature":     model.ColumnNumeric,
				"fixduration":     model.ColumnNumeric,
				"deltatime":       model.ColumnNumeric,
				"cepradius":       model.ColumnNumeric,
				"bhastempvoltage": model.ColumnBoolean,
			},
		},
		{
			Name:  CapabilityDeviceInfo,
			Table: DeviceInfoTable,
			Path:  "/devices",
			Fields: map[string]model.ColumnType{
				"fetched_at": model.ColumnTimestamp,
				"dtcreated":  model.ColumnTimestamp,
			},
		},
	}
}

// MergeMapping Lotek 定位暂存表到宽表的映射
func MergeMapping() model.MergeMapping {
	return model.MergeMapping{
		Vendor:      model.VendorLotek,
		Tag:         Tag,
		SourceTable: PositionTable,
		Fields: []model.FieldMapping{
			// 以厂商载荷中的 DeviceID 为准，注入的 device_id 只做兜底
			{Target: "device_id", Sources: []string{"deviceid", "device_id"}},
			{Target: "collar_id", Sources: []string{"deviceid", "device_id"}},
			{Target: "date_recorded", Sources: []string{"recdatetime"}},
			{Target: "latitude", Sources: []string{"latitude", "lat"}},
			{Target: "longitude", Sources: []string{"longitude", "lon"}},
			{Target: "temperature", Sources: []string{"temperature"}},
			{Target: "main_voltage", Sources: []string{"mainv"}},
			{Target: "backup_voltage", Sources: []string{"bkupv"}},
			{Target: "dop", Sources: []string{"pdop"}},
			{Target: "fix_type", Sources: []string{"fixtype"}},
			{Target: "fix_duration", Sources: []string{"fixduration"}},
			{Target: "cep_radius", Sources: []string{"cepradius"}},
			{Target: "ecef_x", Sources: []string{"ecefx"}},
			{Target: "ecef_y", Sources: []string{"ecefy"}},
			{Target: "ecef_z", Sources: []string{"ecefz"}},
			{Target: "altitude", Sources: []string{"altitude"}},
			{Target: "upload_timestamp", Sources: []string{"uploadtimestamp"}},
			{Target: "rx_status", Sources: []string{"rxstatus"}},
			{Target: "channel_status", Sources: []string{"channelstatus"}},
			{Target: "delta_time", Sources: []string{"deltatime"}},
			{Target: "has_temp_voltage", Sources: []string{"bhastempvoltage"}},
			{Target: "device_name", Sources: []string{"devname"}},
		},
	}
}
