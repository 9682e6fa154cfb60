package model

// CanonicalTable 多厂商定位数据归并后的宽表（每条暂存 GPS 行对应一行）
const CanonicalTable = "api_vendor_data_merge"

// Canonical 宽表中的特殊列
const (
	CanonicalVendorColumn    = "device_vendor"
	CanonicalLatitudeColumn  = "latitude"
	CanonicalLongitudeColumn = "longitude"
	CanonicalGeometryColumn  = "geom"
)

// CanonicalColumn 宽表的一列；顺序即列序，下游按列序读取
type CanonicalColumn struct {
	Name string
	Type ColumnType
}

// CanonicalColumns 宽表固定列序。第 N 列的语义与写入它的厂商无关。
// 动物/项圈元数据段由其他系统维护，本任务写入时恒为 NULL。
var CanonicalColumns = []CanonicalColumn{
	// 标识
	{"device_id", ColumnText},
	{"device_vendor", ColumnText},
	{"collar_id", ColumnText},

	// 动物/项圈元数据
	{"animal_id", ColumnText},
	{"animal_status", ColumnText},
	{"species", ColumnText},
	{"population_unit", ColumnText},
	{"region", ColumnText},
	{"management_area", ColumnText},
	{"wlh_id", ColumnText},
	{"nickname", ColumnText},
	{"sex", ColumnText},
	{"life_stage", ColumnText},
	{"ear_tag_left", ColumnText},
	{"ear_tag_right", ColumnText},
	{"juvenile_at_heel", ColumnText},
	{"estimated_age", ColumnNumeric},
	{"capture_date", ColumnTimestamp},
	{"capture_latitude", ColumnNumeric},
	{"capture_longitude", ColumnNumeric},
	{"release_date", ColumnTimestamp},
	{"mortality_date", ColumnTimestamp},
	{"mortality_latitude", ColumnNumeric},
	{"mortality_longitude", ColumnNumeric},
	{"predator_species", ColumnText},
	{"proximate_cause_of_death", ColumnText},
	{"ultimate_cause_of_death", ColumnText},
	{"collar_make", ColumnText},
	{"collar_model", ColumnText},
	{"collar_status", ColumnText},
	{"collar_type", ColumnText},
	{"satellite_network", ColumnText},
	{"frequency", ColumnNumeric},
	{"frequency_unit", ColumnText},
	{"fix_rate", ColumnText},
	{"deployment_start", ColumnTimestamp},
	{"deployment_end", ColumnTimestamp},
	{"retrieval_date", ColumnTimestamp},
	{"malfunction_date", ColumnTimestamp},
	{"project", ColumnText},
	{"study_area", ColumnText},

	// 定位数据
	{"date_recorded", ColumnTimestamp},
	{"latitude", ColumnNumeric},
	{"longitude", ColumnNumeric},
	{"geom", ColumnGeometry},
	{"temperature", ColumnNumeric},
	{"main_voltage", ColumnNumeric},
	{"backup_voltage", ColumnNumeric},
	{"activity", ColumnNumeric},
	{"dop", ColumnNumeric},
	{"fix_type", ColumnText},
	{"fix_duration", ColumnNumeric},
	{"sat_count", ColumnInteger},
	{"position_error", ColumnNumeric},
	{"cep_radius", ColumnNumeric},
	{"scts", ColumnTimestamp},
	{"ecef_x", ColumnNumeric},
	{"ecef_y", ColumnNumeric},
	{"ecef_z", ColumnNumeric},
	{"altitude", ColumnNumeric},
	{"upload_timestamp", ColumnTimestamp},
	{"origin_code", ColumnText},
	{"vendor_record_id", ColumnText},
	{"rx_status", ColumnText},
	{"channel_status", ColumnText},
	{"delta_time", ColumnNumeric},
	{"has_temp_voltage", ColumnBoolean},
	{"device_name", ColumnText},

	// 传感器状态（目前无厂商映射）
	{"mortality_flag", ColumnBoolean},
	{"mortality_time", ColumnTimestamp},
	{"proximity_status", ColumnText},
	{"separation_status", ColumnText},
	{"implant_status", ColumnText},
}

// CanonicalColumnType 返回宽表列类型，列不存在时返回 false
func CanonicalColumnType(name string) (ColumnType, bool) {
	for _, c := range CanonicalColumns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// FieldMapping 宽表列 ← 暂存表字段；Sources 依次取第一个非空值（用于兼容字段别名）
type FieldMapping struct {
	Target  string
	Sources []string
}

// MergeMapping 单个厂商暂存 GPS 表到宽表的按名映射
type MergeMapping struct {
	Vendor      VendorType
	Tag         string // 写入 device_vendor 的厂商标识常量
	SourceTable string
	Fields      []FieldMapping
}
