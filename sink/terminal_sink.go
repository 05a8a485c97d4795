package sink

import (
	"fmt"
	"io"
	"sync"

	"secure-messenger/contract"
	"secure-messenger/domain/chat"

	"github.com/gookit/color"
)

var _ contract.FeedObserver = (*TerminalSink)(nil)

// TerminalSink prints the feed as it grows, one line per record.
type TerminalSink struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
}

func NewTerminalSink(out io.Writer, colours bool) *TerminalSink {
	return &TerminalSink{out: out, colours: colours}
}

func (s *TerminalSink) OnAppend(index int, message chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, s.render(index, message))
}

func (s *TerminalSink) OnClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, s.paint(color.FgGray, "--- feed cleared ---"))
}

func (s *TerminalSink) render(index int, message chat.Message) string {
	author := s.paint(color.FgCyan, message.Author)
	if message.IsPhoto() {
		return fmt.Sprintf("#%d %s: %s %s", index, author, s.paint(color.FgMagenta, "[photo]"), message.PhotoURL)
	}
	return fmt.Sprintf("#%d %s: %s", index, author, message.Text)
}

func (s *TerminalSink) paint(c color.Color, text string) string {
	if !s.colours {
		return text
	}
	return c.Render(text)
}
