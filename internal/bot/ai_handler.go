package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ceconelo/financaia/internal/ai"
	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/metrics"
	"github.com/ceconelo/financaia/internal/services"
)

const didNotUnderstandReply = `🤔 Não entendi. Tente algo como: "Gastei 50 reais em pizza" ou digite *ajuda*`

// AIHandler is the last stage: everything no command claimed goes to
// the natural-language transaction parser. On a hit it writes the
// transaction and reports XP, achievements and budget alerts; on a
// miss it replies with the didn't-understand prompt. It always claims
// the message.
type AIHandler struct {
	parser       ai.Parser
	finance      *services.FinanceService
	gamification *services.GamificationService
	timeout      time.Duration
}

func NewAIHandler(parser ai.Parser, finance *services.FinanceService, gamification *services.GamificationService, timeout time.Duration) *AIHandler {
	return &AIHandler{
		parser:       parser,
		finance:      finance,
		gamification: gamification,
		timeout:      timeout,
	}
}

func (h *AIHandler) Name() string { return "ai" }

func (h *AIHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	parseCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	parsed, err := h.parser.ParseTransaction(parseCtx, msg.Text)
	if err != nil {
		if errors.Is(err, ai.ErrNoIntent) {
			metrics.AIParses.WithLabelValues("miss").Inc()
		} else {
			// Timeouts and upstream failures count as parse misses
			// toward the user; they still get a reply.
			metrics.AIParses.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "AI parse failed",
				"user_id", msg.User.ID, "error", err)
		}
		msg.Reply(didNotUnderstandReply)
		return Handled, nil
	}
	metrics.AIParses.WithLabelValues("hit").Inc()

	_, xpGained, err := h.finance.AddTransaction(ctx, msg.User.ID,
		parsed.Type, parsed.Amount, parsed.Category, parsed.Description)
	if err != nil {
		return Handled, err
	}

	msg.Reply(h.renderConfirmation(ctx, msg.User.ID, parsed, xpGained))
	return Handled, nil
}

func (h *AIHandler) renderConfirmation(ctx context.Context, userID string, parsed *ai.ParsedTransaction, xpGained int64) string {
	emoji := "💸"
	kind := "Despesa"
	if parsed.Type == core.Income {
		emoji = "💵"
		kind = "Receita"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *Registrado!*\n\n", emoji)
	fmt.Fprintf(&b, "Valor: %s\n", parsed.Amount.Format())
	fmt.Fprintf(&b, "Categoria: %s\n", parsed.Category)
	fmt.Fprintf(&b, "Tipo: %s\n", kind)
	fmt.Fprintf(&b, "\n🎮 +%d XP", xpGained)

	if achievements := h.gamification.CheckAchievements(ctx, userID); len(achievements) > 0 {
		b.WriteString("\n\n" + strings.Join(achievements, "\n"))
	}

	alert, err := h.finance.BudgetAlert(ctx, userID, parsed.Category)
	if err != nil {
		slog.WarnContext(ctx, "Budget alert check failed",
			"user_id", userID, "error", err)
	} else if alert != nil {
		fmt.Fprintf(&b, "\n\n⚠️ Você já gastou %s de %s em %s este mês (%.0f%%)",
			alert.Spent.Format(), alert.Limit.Format(), alert.Category, alert.Percentage)
	}

	return b.String()
}
