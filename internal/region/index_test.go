package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIndex(t *testing.T) {
	index, err := LoadIndex("testdata/regions.yaml")
	require.NoError(t, err)

	assert.Equal(t, 3, index.Len())

	regions := index.Regions()
	require.Len(t, regions, 3)
	assert.Equal(t, "Alpha", regions[0].Name)
	assert.Equal(t, "AA", regions[0].ISOCode)
	assert.Equal(t, "Gamma", regions[2].Name)
	assert.Empty(t, regions[2].ISOCode, "iso code is optional")
}

func TestLoadIndex_MissingFile(t *testing.T) {
	_, err := LoadIndex("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read region definitions")
}

func TestParseIndex(t *testing.T) {
	t.Run("valid minimal definition", func(t *testing.T) {
		index, err := ParseIndex([]byte(`
regions:
  - name: Japan
    iso_code: JP
    bbox: {min_lat: 24, max_lat: 46, min_lon: 123, max_lon: 146}
`))
		require.NoError(t, err)
		assert.Equal(t, 1, index.Len())
	})

	t.Run("invalid YAML", func(t *testing.T) {
		_, err := ParseIndex([]byte("regions: [what"))
		require.Error(t, err)
	})

	t.Run("no regions", func(t *testing.T) {
		_, err := ParseIndex([]byte("regions: []"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no regions")
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - bbox: {min_lat: 0, max_lat: 1, min_lon: 0, max_lon: 1}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing name")
	})

	t.Run("missing geometry", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: Nowhere
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "needs a bbox or a polygon")
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: Japan
    bbox: {min_lat: 24, max_lat: 46, min_lon: 123, max_lon: 146}
  - name: Japan
    bbox: {min_lat: 0, max_lat: 1, min_lon: 0, max_lon: 1}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate region name")
	})

	t.Run("duplicate iso code", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: Japan
    iso_code: JP
    bbox: {min_lat: 24, max_lat: 46, min_lon: 123, max_lon: 146}
  - name: Japan Two
    iso_code: JP
    bbox: {min_lat: 0, max_lat: 1, min_lon: 0, max_lon: 1}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate iso code")
	})

	t.Run("inverted bbox", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: Backwards
    bbox: {min_lat: 46, max_lat: 24, min_lon: 123, max_lon: 146}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min exceeds max")
	})

	t.Run("bbox out of range", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: OffTheMap
    bbox: {min_lat: 24, max_lat: 95, min_lon: 123, max_lon: 146}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid coordinate")
	})

	t.Run("polygon too short", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: Line
    polygon: [[0, 0], [1, 1]]
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 3 vertices")
	})

	t.Run("polygon vertex out of range", func(t *testing.T) {
		_, err := ParseIndex([]byte(`
regions:
  - name: Broken
    polygon: [[0, 0], [1, 200], [2, 0]]
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid coordinate")
	})
}

func TestDefinitionBounds(t *testing.T) {
	t.Run("explicit bbox wins", func(t *testing.T) {
		d := Definition{
			BBox:    &BBox{MinLat: 1, MaxLat: 2, MinLon: 3, MaxLon: 4},
			Polygon: [][2]float64{{-50, -50}, {-50, 50}, {50, 0}},
		}
		assert.Equal(t, BBox{MinLat: 1, MaxLat: 2, MinLon: 3, MaxLon: 4}, d.Bounds())
	})

	t.Run("derived from polygon", func(t *testing.T) {
		d := Definition{Polygon: [][2]float64{{-10, -10}, {-10, -20}, {-20, -15}}}
		assert.Equal(t, BBox{MinLat: -20, MaxLat: -10, MinLon: -20, MaxLon: -10}, d.Bounds())
	})
}

func TestBBox(t *testing.T) {
	b := BBox{MinLat: 10, MaxLat: 20, MinLon: 10, MaxLon: 20}

	t.Run("contains is inclusive on edges", func(t *testing.T) {
		assert.True(t, b.Contains(10, 10))
		assert.True(t, b.Contains(20, 20))
		assert.True(t, b.Contains(15, 15))
		assert.False(t, b.Contains(20.001, 15))
		assert.False(t, b.Contains(15, 9.999))
	})

	t.Run("overlaps", func(t *testing.T) {
		assert.True(t, b.Overlaps(BBox{MinLat: 15, MaxLat: 25, MinLon: 15, MaxLon: 25}))
		assert.True(t, b.Overlaps(BBox{MinLat: 20, MaxLat: 30, MinLon: 20, MaxLon: 30}), "touching edges count")
		assert.False(t, b.Overlaps(BBox{MinLat: 21, MaxLat: 30, MinLon: 10, MaxLon: 20}))
	})
}
