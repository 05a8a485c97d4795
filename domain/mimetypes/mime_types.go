package mimetypes

import (
	"mime"
	"strings"
)

type MIME string

const (
	Unknown MIME = "unknown"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"
)

// Photos lists the media a photo message may carry.
var Photos = []MIME{ImageJPEG, ImagePNG, ImageGIF, ImageWebP}

// ToMIME strips parameters from a detected media type.
func ToMIME(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(strings.ToLower(mt))
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt := ToMIME(detected)
	if mt == Unknown {
		return Unknown, false
	}
	return expected, mt == expected
}

func IsPhoto(detected string) bool {
	mt := ToMIME(detected)
	for _, photo := range Photos {
		if mt == photo {
			return true
		}
	}
	return false
}
