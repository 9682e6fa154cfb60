package schema

import (
	"sort"
	"strings"

	"github.com/bcgov/bctw-api/internal/model"
)

// MaxIdentifierLength PostgreSQL 标识符长度上限
const MaxIdentifierLength = 63

// SurrogateKey 暂存表自增主键列名；载荷中的同名键改名为 source_id
const SurrogateKey = "id"

// NormalizeKey 将载荷键名规范化为安全的列名：
// 小写，仅保留 [a-z0-9_]，其余字符替换为 _，不以数字开头，最长 63 字符。
// 规范化后为空返回 ""，调用方应丢弃该键。
func NormalizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}
	if name == SurrogateKey {
		name = "source_id"
	}
	if len(name) > MaxIdentifierLength {
		name = name[:MaxIdentifierLength]
	}
	return name
}

// NormalizeObject 返回键名规范化后的新对象。
// 多个原始键规范化为同一列名时，按原始键排序取第一个。
func NormalizeObject(obj map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(obj))
	for _, k := range keys {
		name := NormalizeKey(k)
		if name == "" {
			continue
		}
		if _, exists := out[name]; exists {
			continue
		}
		out[name] = obj[k]
	}
	return out
}

// Column 计划中的暂存表列
type Column struct {
	Name string
	Type model.ColumnType
}

// PlanColumns 汇总一批（已规范化）对象的全部键，按列名排序，
// 类型取声明类型，未声明的按 text。
func PlanColumns(objects []map[string]interface{}, declared map[string]model.ColumnType) []Column {
	seen := make(map[string]struct{})
	for _, obj := range objects {
		for k := range obj {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, Column{Name: name, Type: DeclaredType(declared, name)})
	}
	return cols
}

// DeclaredType 返回声明类型，未声明时为 text
func DeclaredType(declared map[string]model.ColumnType, name string) model.ColumnType {
	if t, ok := declared[name]; ok {
		return t
	}
	return model.ColumnText
}

// FromDatabaseType 将数据库报告的列类型名映射回逻辑类型；无法识别的按 text 处理
func FromDatabaseType(dbType string) model.ColumnType {
	t := strings.ToLower(strings.TrimSpace(dbType))
	switch {
	case strings.HasPrefix(t, "geometry"):
		return model.ColumnGeometry
	case strings.HasPrefix(t, "timestamp"), t == "datetime", t == "date":
		return model.ColumnTimestamp
	case t == "jsonb", t == "json":
		return model.ColumnJSON
	case t == "bool", t == "boolean":
		return model.ColumnBoolean
	case t == "int8", t == "int4", t == "int2", t == "bigint", t == "integer", t == "smallint", t == "int":
		return model.ColumnInteger
	case t == "float8", t == "float4", t == "double precision", t == "real", t == "numeric", t == "decimal", t == "double":
		return model.ColumnNumeric
	default:
		return model.ColumnText
	}
}
