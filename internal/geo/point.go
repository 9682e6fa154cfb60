package geo

import (
	"encoding/binary"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
)

// SRID WGS84 经纬度
const SRID = 4326

// EncodePoint 由经纬度生成 POINT(lon lat) 的 EWKB 十六进制串，可直接写入 PostGIS geometry 列
func EncodePoint(lon, lat float64) (string, error) {
	p, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{lon, lat})
	if err != nil {
		return "", fmt.Errorf("build point: %w", err)
	}
	s, err := ewkbhex.Encode(p.SetSRID(SRID), binary.LittleEndian)
	if err != nil {
		return "", fmt.Errorf("encode point: %w", err)
	}
	return s, nil
}

// DecodePoint 解析 EncodePoint 的输出，返回经度、纬度和 SRID
func DecodePoint(s string) (lon, lat float64, srid int, err error) {
	g, err := ewkbhex.Decode(s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("decode point: %w", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, 0, fmt.Errorf("decode point: got %T", g)
	}
	return p.X(), p.Y(), p.SRID(), nil
}
