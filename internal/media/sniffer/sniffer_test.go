package sniffer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want MediaType
		mime string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}, TypePNG, "image/png"},
		{"webp", append([]byte("RIFF"), append([]byte{0, 0, 0, 0}, []byte("WEBPVP8 ")...)...), TypeWEBP, "image/webp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := DetectHead(tc.head)
			require.NoError(t, err)
			require.Equal(t, tc.want, result.Type)
			require.Equal(t, tc.mime, result.MIME)
		})
	}
}

func TestDetectHeadUnknown(t *testing.T) {
	_, err := DetectHead([]byte("GIF89a"))
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = DetectHead(nil)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestDetectReturnsConsumedHead(t *testing.T) {
	payload := append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0xab}, 600)...)
	r := bytes.NewReader(payload)

	result, head, err := Detect(r)
	require.NoError(t, err)
	require.Equal(t, TypeJPEG, result.Type)
	require.Len(t, head, 512)
	require.Equal(t, payload[:512], head)
}

func TestDetectShortStream(t *testing.T) {
	result, head, err := Detect(strings.NewReader("\xff\xd8\xff\xe0"))
	require.NoError(t, err)
	require.Equal(t, TypeJPEG, result.Type)
	require.Len(t, head, 4)
}
