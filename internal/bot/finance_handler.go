package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/services"
)

// FinanceHandler answers the stateless personal commands: saldo,
// dashboard and resumo.
type FinanceHandler struct {
	finance      *services.FinanceService
	gamification *services.GamificationService
	family       *services.FamilyService
}

func NewFinanceHandler(finance *services.FinanceService, gamification *services.GamificationService, family *services.FamilyService) *FinanceHandler {
	return &FinanceHandler{finance: finance, gamification: gamification, family: family}
}

func (h *FinanceHandler) Name() string { return "finance" }

func (h *FinanceHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	switch msg.Norm {
	case "saldo", "/saldo":
		return h.balance(ctx, msg)
	case "dashboard", "/dashboard":
		return h.dashboard(ctx, msg)
	case "resumo", "/resumo":
		return h.summary(ctx, msg)
	}
	return NotHandled, nil
}

func (h *FinanceHandler) balance(ctx context.Context, msg *Message) (Result, error) {
	balance, err := h.finance.Balance(ctx, msg.User.ID)
	if err != nil {
		return Handled, err
	}
	msg.Reply(fmt.Sprintf("💰 *Seu saldo atual:* %s", balance.Format()))
	return Handled, nil
}

func (h *FinanceHandler) dashboard(ctx context.Context, msg *Message) (Result, error) {
	link, err := h.finance.DashboardLink(ctx, msg.User.ID)
	if err != nil {
		return Handled, err
	}
	msg.Reply(fmt.Sprintf("📊 *Seu Dashboard Pessoal*\n\n"+
		"Acesse seu painel exclusivo através deste link:\n\n%s\n\n"+
		"⚠️ *Atenção:* Não compartilhe este link com ninguém.", link))
	return Handled, nil
}

func (h *FinanceHandler) summary(ctx context.Context, msg *Message) (Result, error) {
	now := time.Now().UTC()
	expenses, err := h.finance.MonthlyExpenses(ctx, msg.User.ID, int(now.Month()), now.Year())
	if err != nil {
		return Handled, err
	}

	var b strings.Builder
	b.WriteString("📊 *Resumo do Mês*\n\n")
	fmt.Fprintf(&b, "💸 Total gasto: %s\n", expenses.Total.Format())
	fmt.Fprintf(&b, "📝 Transações: %d\n\n", expenses.Count)
	b.WriteString("*Por categoria:*\n")
	for _, line := range sortedMoneyLines(expenses.ByCategory) {
		b.WriteString(line)
	}

	if stats, err := h.gamification.Stats(ctx, msg.User.ID); err == nil {
		b.WriteString("\n🎮 *Gamificação*\n")
		fmt.Fprintf(&b, "⭐ Nível: %d\n", stats.Level)
		fmt.Fprintf(&b, "🔥 Streak: %d dias\n", stats.Streak)
		fmt.Fprintf(&b, "🏆 Conquistas: %d\n", stats.Achievements)
	}

	report, err := h.family.FamilyReport(ctx, msg.User.ID)
	if err == nil {
		fmt.Fprintf(&b, "\n👨‍👩‍👧‍👦 *Família: %s*\n", report.FamilyName)
		fmt.Fprintf(&b, "💸 Total Familiar: %s\n", report.TotalExpense.Format())
		b.WriteString("ℹ️ Digite */familia* para detalhes")
	} else if !errors.Is(err, core.ErrNoFamily) {
		return Handled, err
	}

	msg.Reply(b.String())
	return Handled, nil
}
