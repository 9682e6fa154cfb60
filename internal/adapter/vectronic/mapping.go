package vectronic

import "github.com/bcgov/bctw-api/internal/model"

// Tag 写入宽表 device_vendor 的 Vectronic 标识
const Tag = "Vectronic"

// GPSTable 定位暂存表，也是归并的来源表
const GPSTable = "api_gpsplusx_device_gps_data"

// capabilitySpecs 能力名与接口路径，顺序即调用顺序
var capabilitySpecs = []struct {
	name string
	path string
}{
	{"mortality_implant", "/mit"},
	{"vaginal_implant", "/vit"},
	{"separation", "/sep"},
	{"proximity", "/prx"},
	{"activity", "/act"},
	{"gps", "/gps"},
	{"mortality", "/mor"},
}

// commonFields 所有能力接口共有的已知字段
var commonFields = map[string]model.ColumnType{
	"fetched_at":      model.ColumnTimestamp,
	"acquisitiontime": model.ColumnTimestamp,
	"scts":            model.ColumnTimestamp,
}

var gpsFields = map[string]model.ColumnType{
	"latitude":      model.ColumnNumeric,
	"longitude":     model.ColumnNumeric,
	"lat":           model.ColumnNumeric,
	"lon":           model.ColumnNumeric,
	"height":        model.ColumnNumeric,
	"dop":           model.ColumnNumeric,
	"ecefx":         model.ColumnNumeric,
	"ecefy":         model.ColumnNumeric,
	"ecefz":         model.ColumnNumeric,
	"mainvoltage":   model.ColumnNumeric,
	"backupvoltage": model.ColumnNumeric,
	"temperature":   model.ColumnNumeric,
	"activity":      model.ColumnNumeric,
	"positionerror": model.ColumnNumeric,
	"satcount":      model.ColumnInteger,
}

// Capabilities 按调用顺序返回 Vectronic 的 7 个能力接口
func Capabilities() []model.Capability {
	caps := make([]model.Capability, 0, len(capabilitySpecs))
	for _, s := range capabilitySpecs {
		fields := make(map[string]model.ColumnType, len(commonFields))
		for k, v := range commonFields {
			fields[k] = v
		}
		if s.name == "gps" {
			for k, v := range gpsFields {
				fields[k] = v
			}
		}
		caps = append(caps, model.Capability{
			Name:   s.name,
			Table:  "api_gpsplusx_device_" + s.name + "_data",
			Path:   s.path,
			Fields: fields,
		})
	}
	return caps
}

// MergeMapping Vectronic 定位暂存表到宽表的映射
func MergeMapping() model.MergeMapping {
	return model.MergeMapping{
		Vendor:      model.VendorVectronic,
		Tag:         Tag,
		SourceTable: GPSTable,
		Fields: []model.FieldMapping{
			{Target: "device_id", Sources: []string{"device_id", "idcollar"}},
			{Target: "collar_id", Sources: []string{"idcollar", "device_id"}},
			{Target: "date_recorded", Sources: []string{"acquisitiontime"}},
			{Target: "latitude", Sources: []string{"latitude", "lat"}},
			{Target: "longitude", Sources: []string{"longitude", "lon"}},
			{Target: "temperature", Sources: []string{"temperature"}},
			{Target: "main_voltage", Sources: []string{"mainvoltage"}},
			{Target: "backup_voltage", Sources: []string{"backupvoltage"}},
			{Target: "activity", Sources: []string{"activity"}},
			{Target: "dop", Sources: []string{"dop"}},
			{Target: "fix_type", Sources: []string{"idfixtype"}},
			{Target: "sat_count", Sources: []string{"satcount"}},
			{Target: "position_error", Sources: []string{"positionerror"}},
			{Target: "scts", Sources: []string{"scts"}},
			{Target: "ecef_x", Sources: []string{"ecefx"}},
			{Target: "ecef_y", Sources: []string{"ecefy"}},
			{Target: "ecef_z", Sources: []string{"ecefz"}},
			{Target: "altitude", Sources: []string{"height"}},
			{Target: "origin_code", Sources: []string{"origincode"}},
			{Target: "vendor_record_id", Sources: []string{"idposition"}},
		},
	}
}
