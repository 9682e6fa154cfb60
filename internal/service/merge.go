package service

import (
	"context"
	"errors"

	"github.com/bcgov/bctw-api/internal/geo"
	"github.com/bcgov/bctw-api/internal/interfaces"
	"github.com/bcgov/bctw-api/internal/model"
	"github.com/bcgov/bctw-api/internal/schema"

	"github.com/sirupsen/logrus"
)

var errUndeclaredColumn = errors.New("column is not declared in the canonical table")

// MergeService 归并阶段：将厂商定位暂存表按列名映射写入宽表
type MergeService struct {
	canonical interfaces.CanonicalStore
	logger    *logrus.Logger
}

func NewMergeService(canonical interfaces.CanonicalStore, logger *logrus.Logger) *MergeService {
	return &MergeService{canonical: canonical, logger: logger}
}

// Merge 每条暂存行生成一条宽表行：厂商标识、映射列、由经纬度计算的点位。
// 任何一行转换失败或写入失败都返回 *model.MergeError，该厂商不写入任何行。
func (s *MergeService) Merge(ctx context.Context, staging interfaces.StagingStore, mapping model.MergeMapping) (int, error) {
	rows, err := staging.ReadRows(ctx, mapping.SourceTable)
	if err != nil {
		return 0, &model.MergeError{Vendor: mapping.Vendor, Err: err}
	}
	if len(rows) == 0 {
		s.logger.WithField("vendor", mapping.Vendor).Info("no staged positions to merge")
		return 0, nil
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for i, row := range rows {
		merged, err := BuildCanonicalRow(mapping, row)
		if err != nil {
			var me *model.MergeError
			if errors.As(err, &me) {
				me.Row = i + 1
			}
			return 0, err
		}
		out = append(out, merged)
	}

	if err := s.canonical.InsertRows(ctx, out); err != nil {
		return 0, &model.MergeError{Vendor: mapping.Vendor, Err: err}
	}
	s.logger.WithFields(logrus.Fields{
		"vendor": mapping.Vendor,
		"rows":   len(out),
	}).Info("staged positions merged into canonical table")
	return len(out), nil
}

// BuildCanonicalRow 按映射构造一条宽表行。未映射的宽表列不出现在结果中（写入为 NULL）。
func BuildCanonicalRow(mapping model.MergeMapping, row map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(mapping.Fields)+2)
	out[model.CanonicalVendorColumn] = mapping.Tag

	for _, f := range mapping.Fields {
		typ, ok := model.CanonicalColumnType(f.Target)
		if !ok {
			return nil, &model.MergeError{Vendor: mapping.Vendor, Column: f.Target, Err: errUndeclaredColumn}
		}
		v, err := schema.Coerce(firstNonNull(row, f.Sources), typ)
		if err != nil {
			return nil, &model.MergeError{Vendor: mapping.Vendor, Column: f.Target, Err: err}
		}
		out[f.Target] = v
	}

	out[model.CanonicalGeometryColumn] = nil
	lat, latOK := out[model.CanonicalLatitudeColumn].(float64)
	lon, lonOK := out[model.CanonicalLongitudeColumn].(float64)
	if latOK && lonOK {
		point, err := geo.EncodePoint(lon, lat)
		if err != nil {
			return nil, &model.MergeError{Vendor: mapping.Vendor, Column: model.CanonicalGeometryColumn, Err: err}
		}
		out[model.CanonicalGeometryColumn] = point
	}
	return out, nil
}

func firstNonNull(row map[string]interface{}, sources []string) interface{} {
	for _, src := range sources {
		if v, ok := row[src]; ok && v != nil {
			return v
		}
	}
	return nil
}
