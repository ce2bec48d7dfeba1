package refno

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSequence(t *testing.T) {
	tests := []struct {
		seq     int64
		padding int
		want    string
	}{
		{5, 2, "05"},
		{123, 2, "123"},
		{7, 1, "7"},
		{7, 0, "7"},
		{42, 4, "0042"},
		{9999, 4, "9999"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSequence(tt.seq, tt.padding), "seq=%d padding=%d", tt.seq, tt.padding)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "INV/01/25", Format("INV", 1, 2, 2025))
	assert.Equal(t, "TPG-TC/07/25", Format("TPG-TC", 7, 2, 2025))
	assert.Equal(t, "A/100/09", Format("A", 100, 2, 2009))
	assert.Equal(t, "Y2K/1/00", Format("Y2K", 1, 1, 2000))
}

func TestParse(t *testing.T) {
	tests := []struct {
		ref    string
		prefix string
		seq    int64
		yy     int
		ok     bool
	}{
		{"INV/01/25", "INV", 1, 25, true},
		{"TPG-TC/0123/09", "TPG-TC", 123, 9, true},
		{"HR/LEAVE/004/24", "HR/LEAVE", 4, 24, true},
		{"INV/xx/25", "", 0, 0, false},
		{"INV/01/2025", "", 0, 0, false},
		{"INV/00/25", "", 0, 0, false},
		{"/01/25", "", 0, 0, false},
		{"INV-0001", "", 0, 0, false},
		{"", "", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			prefix, seq, yy, ok := Parse(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.seq, seq)
			assert.Equal(t, tt.yy, yy)
		})
	}
}

func TestParseInvertsFormat(t *testing.T) {
	ref := Format("LEG", 31, 3, 2031)
	prefix, seq, yy, ok := Parse(ref)
	assert.True(t, ok)
	assert.Equal(t, "LEG", prefix)
	assert.Equal(t, int64(31), seq)
	assert.Equal(t, 31, yy)
}
