package chat

import (
	"fmt"
	"reflect"

	"github.com/samber/lo"
)

// Keys of the structured payload stored under a channel.
const (
	KeyText     = "text"
	KeyName     = "name"
	KeyPhotoURL = "photoUrl"
)

// Encode maps a message to the backend-neutral payload. Absent fields are omitted.
func Encode(m Message) map[string]any {
	payload := make(map[string]any, 3)
	if m.Text != "" {
		payload[KeyText] = m.Text
	}
	if m.Author != "" {
		payload[KeyName] = m.Author
	}
	if m.PhotoURL != "" {
		payload[KeyPhotoURL] = m.PhotoURL
	}
	return payload
}

// Decode never fails: missing or unusable values decode to empty fields.
func Decode(payload map[string]any) Message {
	return Message{
		Text:     field(payload, KeyText),
		Author:   field(payload, KeyName),
		PhotoURL: field(payload, KeyPhotoURL),
	}
}

func field(payload map[string]any, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		return lo.FromPtr(v)
	case fmt.Stringer:
		// A typed nil may dereference its receiver in String
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return ""
		}
		return v.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	default:
		// Nested maps and lists carry no usable text.
		return ""
	}
}
