package mimetypes

import (
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		expected MIME
		want     bool
	}{
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"JPEG upper case", "IMAGE/JPEG", ImageJPEG, true},
		{"GIF", "image/gif", ImageGIF, true},

		// Fallback / mismatch
		{"Mismatch", "image/png", ImageJPEG, false},
		{"Text is not an image", "text/plain; charset=utf-8", ImagePNG, false},
		{"Invalid MIME", "not a mime", ImagePNG, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Matches(tt.detected, tt.expected)
			if ok != tt.want {
				t.Errorf("Matches(%q, %q) = %v; want %v", tt.detected, tt.expected, ok, tt.want)
			}
		})
	}
}

func TestIsPhoto(t *testing.T) {
	tests := []struct {
		detected string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/webp", true},
		{"image/svg+xml", false},
		{"application/pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.detected, func(t *testing.T) {
			if got := IsPhoto(tt.detected); got != tt.want {
				t.Errorf("IsPhoto(%q) = %v; want %v", tt.detected, got, tt.want)
			}
		})
	}
}
