package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/mapexport/internal/sink"
	"github.com/kiesman99/mapexport/pkg/tile"
)

func TestParseBBox(t *testing.T) {
	b, err := parseBBox("13.3, 52.45,13.5,52.55")
	require.NoError(t, err)
	assert.Equal(t, tile.BoundingBox{MinLon: 13.3, MinLat: 52.45, MaxLon: 13.5, MaxLat: 52.55}, b)

	_, err = parseBBox("1,2,3")
	assert.Error(t, err)

	_, err = parseBBox("1,2,x,4")
	assert.ErrorContains(t, err, "max-lon")
}

func TestCheckBounds(t *testing.T) {
	assert.NoError(t, checkBounds(tile.BoundingBox{MinLon: 170, MinLat: -20, MaxLon: -170, MaxLat: -10}))
	assert.Error(t, checkBounds(tile.BoundingBox{MinLon: 0, MinLat: -95, MaxLon: 1, MaxLat: 0}))
	assert.Error(t, checkBounds(tile.BoundingBox{MinLon: 0, MinLat: 10, MaxLon: 1, MaxLat: 5}))
	assert.Error(t, checkBounds(tile.BoundingBox{MinLon: 190, MinLat: 0, MaxLon: 1, MaxLat: 5}))
}

func TestOpenDestinations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	dests, err := openDestinations(ctx, dir+"/berlin.png", "", "Map.png", true)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.Equal(t, &sink.FileSink{Dir: dir}, dests[0].sink)
	assert.Equal(t, "berlin.png", dests[0].name)

	_, err = openDestinations(ctx, "", "", "Map.png", true)
	assert.ErrorContains(t, err, "world file")

	_, err = openDestinations(ctx, dir, "/tmp/elsewhere", "Map.png", false)
	assert.ErrorContains(t, err, "s3://")
}

func TestParamsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"params", "--bbox", "13.3,52.45,13.5,52.55"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Optimal zoom:")
	assert.Contains(t, out.String(), "DETAIL")
}
