package layer

import (
	"testing"

	"github.com/maplibre/mlt-go/endian"
	"github.com/maplibre/mlt-go/format"
	"github.com/maplibre/mlt-go/geometry"
	"github.com/maplibre/mlt-go/property"
	"github.com/stretchr/testify/require"
)

func TestPropertyColumnEncodeAutoRoundtrip(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	c := &PropertyColumn{Name: "lanes", Type: format.U32, Value: &Decoded{
		Scalar: property.U32Values{0, 1, 2, 1, 0, 3, 2, 1},
	}}

	require.NoError(t, c.EncodeAuto(engine))
	require.NotEmpty(t, c.Raw)

	got := &PropertyColumn{Name: "lanes", Type: format.U32, Raw: c.Raw}
	require.NoError(t, got.Materialize(engine))
	require.Equal(t, c.Value.Scalar, got.Value.Scalar)
}

func TestPropertyColumnChooseStrategyStringColumnUsesDefault(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	c := &PropertyColumn{Name: "name", Type: format.Str, Value: &Decoded{
		Str: property.StrValues{"a", "b"},
	}}

	strategy, err := c.ChooseStrategy(engine)
	require.NoError(t, err)
	require.Equal(t, DefaultStrategy(), strategy)
}

func TestPropertyColumnChooseStrategyRequiresMaterializedValue(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	c := &PropertyColumn{Name: "lanes", Type: format.U32}

	_, err := c.ChooseStrategy(engine)
	require.Error(t, err)
}

func TestLayer01WriteLayer01WithAutoStrategy(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	l := &Layer01{Name: "roads", Extent: 4096, StrategyFor: AutoStrategyFor(engine)}
	l.Geometry.Value = &geometry.Geometry{Features: []geometry.Feature{
		{Type: format.Point, Point: geometry.Coord{X: 1, Y: 2}},
		{Type: format.Point, Point: geometry.Coord{X: 3, Y: 4}},
	}}

	lanes := &PropertyColumn{Name: "lanes", Type: format.U32, Value: &Decoded{
		Scalar: property.U32Values{2, 4},
	}}
	l.AddProperty(lanes)

	data, err := WriteLayer01(l, engine)
	require.NoError(t, err)

	got, _, err := ParseLayer01(data, engine)
	require.NoError(t, err)
	require.NoError(t, got.Properties[0].Materialize(engine))
	require.Equal(t, property.U32Values{2, 4}, got.Properties[0].Value.Scalar)
}
