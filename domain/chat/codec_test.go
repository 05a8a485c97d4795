package chat

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip_TextAndPhoto(t *testing.T) {
	req := require.New(t)
	text, err := NewTextMessage("hi", "alice")
	req.NoError(err)
	photo, err := NewPhotoMessage("http://x/1.jpg", "bob")
	req.NoError(err)

	for _, m := range []Message{text, photo} {
		req.Equal(m, Decode(Encode(m)))
	}
}

func TestCodec_Encode_OmitsAbsentFields(t *testing.T) {
	req := require.New(t)

	payload := Encode(Message{Text: "hi", Author: "alice"})

	req.Equal(map[string]any{"text": "hi", "name": "alice"}, payload)
	req.NotContains(payload, KeyPhotoURL)
}

func TestCodec_Decode_EmptyPayload(t *testing.T) {
	req := require.New(t)

	req.Equal(Message{}, Decode(map[string]any{}))
	req.Equal(Message{}, Decode(nil))
}

func TestCodec_Decode_Tolerates_Malformed_Values(t *testing.T) {
	req := require.New(t)

	// Given a payload with wrong types and unknown keys
	payload := map[string]any{
		"text":     42,
		"name":     nil,
		"photoUrl": map[string]any{"nested": true},
		"extra":    "ignored",
	}

	// When it is decoded
	m := Decode(payload)

	// Then best-effort fields are extracted
	req.Equal("42", m.Text)
	req.Empty(m.Author)
	req.Empty(m.PhotoURL)
}

func TestCodec_Encode_Of_Decode_Keeps_NonEmpty_Fields(t *testing.T) {
	req := require.New(t)
	payload := map[string]any{"photoUrl": "http://x/1.jpg", "name": "bob"}

	req.Equal(payload, Encode(Decode(payload)))
}

func TestCodec_Decode_TypedNil_Stringer(t *testing.T) {
	req := require.New(t)
	var link *url.URL

	// Given a nil pointer whose String method dereferences its receiver
	payload := map[string]any{"text": link, "name": "x"}

	// Then decoding yields an absent field instead of panicking
	req.NotPanics(func() {
		m := Decode(payload)
		req.Empty(m.Text)
		req.Equal("x", m.Author)
	})

	// And a non nil Stringer is still formatted
	link = &url.URL{Scheme: "https", Host: "example.com"}
	req.Equal("https://example.com", Decode(map[string]any{"photoUrl": link}).PhotoURL)
}

func TestCodec_Decode_Small_Integers(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int8", int8(-7), "-7"},
		{"int16", int16(-300), "-300"},
		{"uint8", uint8(7), "7"},
		{"uint16", uint16(300), "300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Decode(map[string]any{"text": tt.value})
			require.Equal(t, tt.want, m.Text)
		})
	}
}
