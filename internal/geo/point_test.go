package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePoint(t *testing.T) {
	s, err := EncodePoint(-123.1, 49.2)
	require.NoError(t, err)
	// little endian, point type with SRID flag, SRID 4326
	assert.True(t, strings.EqualFold("0101000020E6100000", s[:18]), s)

	lon, lat, srid, err := DecodePoint(s)
	require.NoError(t, err)
	assert.Equal(t, -123.1, lon)
	assert.Equal(t, 49.2, lat)
	assert.Equal(t, SRID, srid)
}

func TestDecodePointRejectsGarbage(t *testing.T) {
	_, _, _, err := DecodePoint("not-hex")
	assert.Error(t, err)
}
