package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buf.Bytes()
}

func TestFit_SmallImageUnchanged(t *testing.T) {
	p := NewProcessor(100, 0)
	data := encodePNG(t, 80, 40)

	out, resized, err := p.Fit(data)

	require.NoError(t, err)
	assert.False(t, resized)
	assert.Equal(t, data, out)
}

func TestFit_DownscalesKeepingAspect(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantFormat string
		wantWidth  int
		wantHeight int
	}{
		{"широкий png", encodePNG(t, 400, 200), "png", 100, 50},
		{"высокий jpeg", encodeJPEG(t, 120, 480), "jpeg", 25, 100},
	}

	p := NewProcessor(100, 90)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, resized, err := p.Fit(tt.data)
			require.NoError(t, err)
			assert.True(t, resized)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantWidth, cfg.Width)
			assert.Equal(t, tt.wantHeight, cfg.Height)
		})
	}
}

func TestFit_NotAnImage(t *testing.T) {
	_, _, err := NewProcessor(0, 0).Fit([]byte("plain text"))
	assert.Error(t, err)
}
