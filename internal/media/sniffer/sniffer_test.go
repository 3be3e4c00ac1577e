package sniffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHeadImages(t *testing.T) {
	cases := map[string]struct {
		head []byte
		want MediaType
	}{
		"png":  {[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, TypePNG},
		"jpeg": {[]byte{0xff, 0xd8, 0xff, 0xe0, 0}, TypeJPEG},
		"gif":  {[]byte("GIF89a...."), TypeGIF},
		"webp": {[]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP},
		"svg":  {[]byte("  <svg xmlns=\"http://www.w3.org/2000/svg\"></svg>"), TypeSVG},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DetectHead(tc.head)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Type)
			assert.True(t, got.IsImage())
		})
	}
}

func TestDetectHeadFiles(t *testing.T) {
	got, err := DetectHead([]byte("%PDF-1.7\n"))
	require.NoError(t, err)
	assert.Equal(t, TypePDF, got.Type)
	assert.False(t, got.IsImage())

	got, err = DetectHead([]byte("plain lecture notes"))
	require.NoError(t, err)
	assert.Equal(t, TypeFile, got.Type)
	assert.Equal(t, "text/plain", got.MIME)
	assert.Equal(t, ".txt", got.Ext)
}

func TestDetectHeadXMLWithoutSVG(t *testing.T) {
	got, err := DetectHead([]byte(`<?xml version="1.0"?><note/>`))
	require.NoError(t, err)
	assert.Equal(t, TypeFile, got.Type)
}

func TestDetectReturnsConsumedBytes(t *testing.T) {
	payload := append([]byte("GIF87a"), bytes.Repeat([]byte{1}, 1000)...)

	res, head, err := Detect(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, TypeGIF, res.Type)
	assert.Len(t, head, sniffLen)

	_, _, err = Detect(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)
}
