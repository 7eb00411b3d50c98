// Package bot is the conversation layer: the ordered dispatch
// pipeline, the stateless command handlers, the plan wizard and the
// reply rendering.
package bot

import (
	"context"
	"strings"

	"github.com/ceconelo/financaia/internal/core"
)

// Result says whether a pipeline stage claimed the message. A Handled
// stage has already sent its replies; dispatch stops there.
type Result int

const (
	NotHandled Result = iota
	Handled
)

// Handler is one stage of the dispatch pipeline. Handlers perform
// their own lookups and permission checks; no stage depends on another
// stage having run.
type Handler interface {
	Name() string
	Handle(ctx context.Context, msg *Message) (Result, error)
}

// Message is one inbound text on its way through the pipeline.
// Command keywords match against Norm; user-supplied free text (names,
// categories, invite codes) is read from Text so casing survives.
type Message struct {
	User *core.User
	Text string
	Norm string

	replies []string
}

func NewMessage(user *core.User, text string) *Message {
	return &Message{
		User: user,
		Text: strings.TrimSpace(text),
		Norm: Normalize(text),
	}
}

// Reply queues a reply for the transport to deliver.
func (m *Message) Reply(text string) {
	m.replies = append(m.replies, text)
}

// Replies returns everything queued so far, in order.
func (m *Message) Replies() []string {
	return m.replies
}

// Arg returns the n-th whitespace-separated word of the original text
// (0 is the command itself), or "" when absent.
func (m *Message) Arg(n int) string {
	parts := strings.Fields(m.Text)
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}

// ArgTail returns everything from the n-th word onward with original
// casing, joined by single spaces.
func (m *Message) ArgTail(n int) string {
	parts := strings.Fields(m.Text)
	if n >= len(parts) {
		return ""
	}
	return strings.Join(parts[n:], " ")
}

// NormArg is Arg over the normalized text, for matching subcommands.
func (m *Message) NormArg(n int) string {
	parts := strings.Fields(m.Norm)
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}
