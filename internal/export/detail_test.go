package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailLevels(t *testing.T) {
	p := Params{Zoom: 9, XResolution: 400, YResolution: 300}
	levels := DetailLevels(p, 0, 10)

	require.Len(t, levels, len(DetailOffsets))
	for i, d := range levels {
		assert.Equal(t, DetailOffsets[i], d.Offset)
		assert.Equal(t, 9+d.Offset, d.Zoom)
	}

	assert.True(t, levels[0].Available)
	assert.Equal(t, 100, levels[0].XResolution)
	assert.Equal(t, 75, levels[0].YResolution)

	// zoom 10 is the source's last native level, zoom 11 is not
	assert.True(t, levels[3].Available)
	assert.False(t, levels[4].Available)
	assert.Equal(t, 1600, levels[4].XResolution)
}

func TestResolveZoom(t *testing.T) {
	p := Params{Zoom: 3}

	zoom, err := ResolveZoom(p, 1, 0, 19)
	require.NoError(t, err)
	assert.Equal(t, 4, zoom)

	_, err = ResolveZoom(p, -2, 2, 19)
	assert.Error(t, err)
}
