package bot

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/metrics"
	"github.com/ceconelo/financaia/internal/session"
)

const genericErrorReply = "❌ Ops! Algo deu errado. Tente novamente."

// Pipeline dispatches an inbound message through the fixed handler
// chain: auth gate, wizard, finance, family, planning, system,
// AI fallback. The first stage that claims the message ends dispatch.
//
// A stage error is recovered at the boundary: logged, counted, and
// turned into a generic apology so the user always gets a reply.
type Pipeline struct {
	handlers []Handler
	sessions *session.Store
}

func NewPipeline(sessions *session.Store, handlers ...Handler) *Pipeline {
	return &Pipeline{handlers: handlers, sessions: sessions}
}

// Dispatch runs one message end to end and returns the replies to
// deliver. Messages from the same user serialize on the session lock;
// different users proceed concurrently.
func (p *Pipeline) Dispatch(ctx context.Context, user *core.User, text string) []string {
	p.sessions.Lock(user.ID)
	defer p.sessions.Unlock(user.ID)

	timer := prometheus.NewTimer(metrics.MessageDuration)
	defer timer.ObserveDuration()

	msg := NewMessage(user, text)
	for _, h := range p.handlers {
		result, err := h.Handle(ctx, msg)
		if err != nil {
			slog.ErrorContext(ctx, "Handler failed",
				"handler", h.Name(), "user_id", user.ID, "error", err)
			metrics.HandlerErrors.WithLabelValues(h.Name()).Inc()
			msg.Reply(genericErrorReply)
			return msg.Replies()
		}
		if result == Handled {
			metrics.MessagesHandled.WithLabelValues(h.Name()).Inc()
			return msg.Replies()
		}
	}

	// The AI fallback claims everything, so an unclaimed message means
	// the chain was assembled without it.
	slog.WarnContext(ctx, "Message fell through the pipeline", "user_id", user.ID)
	msg.Reply(genericErrorReply)
	return msg.Replies()
}
