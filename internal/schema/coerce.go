package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bcgov/bctw-api/internal/model"

	"gorm.io/datatypes"
)

// timestampLayouts 厂商接口中出现过的时间格式
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Coerce 将载荷/暂存值转换为指定列类型的写入值；nil 与空字符串（非 text 列）视为 NULL
func Coerce(v interface{}, t model.ColumnType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if s, ok := v.(string); ok && t != model.ColumnText && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	switch t {
	case model.ColumnText, model.ColumnGeometry:
		return toText(v)
	case model.ColumnNumeric:
		return toFloat(v)
	case model.ColumnInteger:
		return toInt(v)
	case model.ColumnBoolean:
		return toBool(v)
	case model.ColumnTimestamp:
		return toTime(v)
	case model.ColumnJSON:
		return toJSON(v)
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

func toText(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("encode %T as text: %w", v, err)
		}
		return string(b), nil
	}
}

func toFloat(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%q is not numeric", x.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not numeric", x)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to numeric", v)
	}
}

func toInt(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return floatToInt(x.String())
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, nil
		}
		return floatToInt(x)
	default:
		return nil, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func floatToInt(s string) (interface{}, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}

func toBool(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%q is not boolean", x.String())
		}
		return f != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("%q is not boolean", x)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to boolean", v)
	}
}

func toTime(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		t, err := ParseTimestamp(x)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to timestamp", v)
	}
}

// ParseTimestamp 按已知格式解析时间；不带时区的按 UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp", s)
}

func toJSON(v interface{}) (interface{}, error) {
	if s, ok := v.(string); ok && json.Valid([]byte(s)) {
		return datatypes.JSON(s), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T as json: %w", v, err)
	}
	return datatypes.JSON(b), nil
}
