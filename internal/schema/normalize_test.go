package schema

import (
	"strings"
	"testing"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Latitude":         "latitude",
		"RecDateTime":      "recdatetime",
		"Temperature [°C]": "temperature___c",
		"  dop ":           "dop",
		"ID":               "source_id",
		"_id":              "source_id",
		"3D_Error":         "c_3d_error",
		"main.voltage":     "main_voltage",
		"---":              "",
		"idCollar":         "idcollar",
		"ecef-x":           "ecef_x",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), "key %q", in)
	}
}

func TestNormalizeKeyLength(t *testing.T) {
	long := strings.Repeat("a", 100)
	assert.Len(t, NormalizeKey(long), MaxIdentifierLength)
}

func TestNormalizeObjectCollision(t *testing.T) {
	obj := map[string]interface{}{
		"Lat":   1.0,
		"lat":   2.0,
		"%%":    "dropped",
		"Speed": 3,
	}
	out := NormalizeObject(obj)
	assert.Equal(t, map[string]interface{}{"lat": 1.0, "speed": 3}, out)
}

func TestPlanColumns(t *testing.T) {
	objects := []map[string]interface{}{
		{"latitude": 1.0, "device_id": "1"},
		{"longitude": 2.0, "note": "x"},
	}
	declared := map[string]model.ColumnType{
		"latitude":  model.ColumnNumeric,
		"longitude": model.ColumnNumeric,
	}
	cols := PlanColumns(objects, declared)
	assert.Equal(t, []Column{
		{Name: "device_id", Type: model.ColumnText},
		{Name: "latitude", Type: model.ColumnNumeric},
		{Name: "longitude", Type: model.ColumnNumeric},
		{Name: "note", Type: model.ColumnText},
	}, cols)
}

func TestFromDatabaseType(t *testing.T) {
	assert.Equal(t, model.ColumnNumeric, FromDatabaseType("float8"))
	assert.Equal(t, model.ColumnNumeric, FromDatabaseType("REAL"))
	assert.Equal(t, model.ColumnInteger, FromDatabaseType("INTEGER"))
	assert.Equal(t, model.ColumnInteger, FromDatabaseType("int8"))
	assert.Equal(t, model.ColumnTimestamp, FromDatabaseType("timestamptz"))
	assert.Equal(t, model.ColumnTimestamp, FromDatabaseType("DATETIME"))
	assert.Equal(t, model.ColumnBoolean, FromDatabaseType("bool"))
	assert.Equal(t, model.ColumnJSON, FromDatabaseType("jsonb"))
	assert.Equal(t, model.ColumnGeometry, FromDatabaseType("geometry"))
	assert.Equal(t, model.ColumnText, FromDatabaseType("varchar"))
}
