package chat

import (
	"io"

	"secure-messenger/domain/feed"
)

type Command interface {
	Target() feed.Channel
}

type SendTextCommand struct {
	Channel feed.Channel
	Author  string
	Text    string
}

func (c SendTextCommand) Target() feed.Channel {
	return c.Channel
}

// SendPhotoCommand carries a locally obtained photo; Name is the last path segment of its source.
type SendPhotoCommand struct {
	Channel feed.Channel
	Author  string
	Name    string
	Content io.Reader
}

func (c SendPhotoCommand) Target() feed.Channel {
	return c.Channel
}
