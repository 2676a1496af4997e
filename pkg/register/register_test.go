package register

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVGH(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4A", "29.80 V"},
		{"00", "15.00 V"},
		{"FF", "66.00 V"},
		{"ff", "66.00 V"},
		{"01", "15.20 V"},
		{"A2", "47.40 V"},
		{"7", "16.40 V"},
		{"0x4A", "29.80 V"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := DecodeVGH(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestDecodeVGH_AllTwoDigitValues(t *testing.T) {
	for n := 0; n <= 0xFF; n++ {
		h := fmt.Sprintf("%02X", n)
		v, err := DecodeVGH(h)
		require.NoError(t, err, h)

		want := fmt.Sprintf("%.2f V", 15.0+float64(n)*0.2)
		assert.Equal(t, want, v.String(), h)
	}
}

func TestDecodeVGH_InvalidFormat(t *testing.T) {
	for _, in := range []string{"", "GG", "Z1", "1Z", "0x", " 4A", "-1", "4.A"} {
		t.Run(strconv.Quote(in), func(t *testing.T) {
			_, err := DecodeVGH(in)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestDecodeVGH_WideInput(t *testing.T) {
	v, err := DecodeVGH("100")
	require.NoError(t, err)
	assert.Equal(t, "66.20 V", v.String())

	huge := strings.Repeat("F", 40)
	assert.NotPanics(t, func() {
		v, err = DecodeVGH(huge)
	})
	require.NoError(t, err)
	assert.Greater(t, float64(v), 1e40)
}

func TestDecodeVGH_Repeatable(t *testing.T) {
	first, err := DecodeVGH("4A")
	require.NoError(t, err)

	for range 5 {
		_, _ = DecodeVGH("GG")
		got, err := DecodeVGH("4A")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "29.80 V", Display("4A"))
	assert.Equal(t, InvalidHexText, Display("GG"))
	assert.Equal(t, InvalidHexText, Display(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "4A", Normalize("  4a\n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestEncodeVGH(t *testing.T) {
	h, err := EncodeVGH(29.8)
	require.NoError(t, err)
	assert.Equal(t, "4A", h)

	h, err = EncodeVGH(15)
	require.NoError(t, err)
	assert.Equal(t, "00", h)

	h, err = EncodeVGH(VGHMax)
	require.NoError(t, err)
	assert.Equal(t, "FF", h)

	h, err = EncodeVGH(29.89)
	require.NoError(t, err)
	assert.Equal(t, "4A", h)

	_, err = EncodeVGH(14.9)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = EncodeVGH(70)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for n := 0; n <= 0xFF; n += 17 {
		h := fmt.Sprintf("%02X", n)
		v, err := DecodeVGH(h)
		require.NoError(t, err)

		back, err := EncodeVGH(float64(v))
		require.NoError(t, err)
		assert.Equal(t, h, back)
	}
}
