package model

import "strings"

// VendorType 厂商类型枚举
type VendorType string

const (
	VendorLotek     VendorType = "lotek"
	VendorVectronic VendorType = "vectronic"
)

// ParseVendorType 将配置中的厂商名解析为 VendorType，未知厂商返回 false
func ParseVendorType(name string) (VendorType, bool) {
	switch VendorType(strings.ToLower(strings.TrimSpace(name))) {
	case VendorLotek:
		return VendorLotek, true
	case VendorVectronic:
		return VendorVectronic, true
	default:
		return "", false
	}
}

// Device 注册表中的一个项圈设备；CollarKey 仅对按设备鉴权的厂商有值
type Device struct {
	DeviceID  string
	CollarKey string
}

// Capability 厂商 API 的一个按设备查询的能力接口，及其对应的暂存表
type Capability struct {
	Name  string
	Table string
	Path  string // 相对厂商 base_url 的接口路径
	// Fields 已知字段（规范化后的键名）声明的列类型；未声明的字段按 text 存储
	Fields map[string]ColumnType
}
