package share

import (
	"math"
	"strings"
)

const shortLinkChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_~"

// ShortCode encodes a position as the interleaved-bit short link code.
// Each character carries three zoom levels; "-" pads the remainder.
func ShortCode(lon, lat float64, zoom int) string {
	x := uint64(math.Floor((lon+180)*math.Exp2(32)/360)) & 0xffffffff
	y := uint64(math.Floor((lat+90)*math.Exp2(32)/180)) & 0xffffffff
	code := interleave(x, y)

	var sb strings.Builder
	digits := int(math.Ceil(float64(zoom+8) / 3))
	for i := 0; i < digits && i < 10; i++ {
		digit := (code >> (58 - 6*uint(i))) & 0x3f
		sb.WriteByte(shortLinkChars[digit])
	}
	for i := 0; i < (zoom+8)%3; i++ {
		sb.WriteByte('-')
	}
	return sb.String()
}

// interleave merges the low 32 bits of x and y, x taking the higher bit of each pair
func interleave(x, y uint64) uint64 {
	var c uint64
	for i := 31; i >= 0; i-- {
		c = (c << 1) | ((x >> uint(i)) & 1)
		c = (c << 1) | ((y >> uint(i)) & 1)
	}
	return c
}
