package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/services"
)

const noFamilyReply = "👨‍👩‍👧‍👦 *Conta Familiar*\n\n" +
	"Você ainda não faz parte de uma família.\n\n" +
	"*Comandos:*\n" +
	"• `/familia criar` - Criar nova família\n" +
	"• `/familia entrar [codigo]` - Entrar em uma família existente"

// FamilyHandler answers familia criar, familia entrar and the default
// family report.
type FamilyHandler struct {
	family *services.FamilyService
}

func NewFamilyHandler(family *services.FamilyService) *FamilyHandler {
	return &FamilyHandler{family: family}
}

func (h *FamilyHandler) Name() string { return "family" }

func (h *FamilyHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	if !hasCommand(msg.Norm, "familia") {
		return NotHandled, nil
	}

	switch msg.NormArg(1) {
	case "criar":
		return h.create(ctx, msg)
	case "entrar":
		return h.join(ctx, msg)
	default:
		return h.report(ctx, msg)
	}
}

func (h *FamilyHandler) create(ctx context.Context, msg *Message) (Result, error) {
	group, err := h.family.CreateFamily(ctx, msg.User.ID, msg.ArgTail(2))
	if errors.Is(err, core.ErrHasFamily) {
		msg.Reply("❌ Você já faz parte de uma família!")
		return Handled, nil
	}
	if err != nil {
		return Handled, err
	}

	msg.Reply(fmt.Sprintf("🎉 *Família criada com sucesso!*\n\n"+
		"Código de convite: *%s*\n\n"+
		"Compartilhe este código com quem você quer adicionar à família.", group.InviteCode))
	return Handled, nil
}

func (h *FamilyHandler) join(ctx context.Context, msg *Message) (Result, error) {
	// Invite code from the original text, stripped of the brackets the
	// usage hint shows.
	code := strings.Trim(msg.Arg(2), "[]")
	if code == "" {
		msg.Reply("⚠️ Use: `/familia entrar [codigo]`")
		return Handled, nil
	}

	group, err := h.family.JoinFamily(ctx, msg.User.ID, code)
	switch {
	case errors.Is(err, core.ErrHasFamily):
		msg.Reply("❌ Você já faz parte de uma família!")
		return Handled, nil
	case errors.Is(err, core.ErrInviteNotFound):
		msg.Reply("❌ Código de convite inválido.")
		return Handled, nil
	case err != nil:
		return Handled, err
	}

	msg.Reply(fmt.Sprintf("🎉 *Você entrou na família %s!*", group.Name))
	return Handled, nil
}

func (h *FamilyHandler) report(ctx context.Context, msg *Message) (Result, error) {
	report, err := h.family.FamilyReport(ctx, msg.User.ID)
	if errors.Is(err, core.ErrNoFamily) {
		msg.Reply(noFamilyReply)
		return Handled, nil
	}
	if err != nil {
		return Handled, err
	}

	msg.Reply(renderFamilyReport(report))
	return Handled, nil
}

func renderFamilyReport(report *services.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "👨‍👩‍👧‍👦 *Família: %s*\n", report.FamilyName)
	fmt.Fprintf(&b, "🔑 Código: `%s`\n", report.InviteCode)
	fmt.Fprintf(&b, "👥 %d Membros\n\n", report.MemberCount)
	fmt.Fprintf(&b, "💰 *Saldo: %s*\n", report.TotalIncome.Format())
	fmt.Fprintf(&b, "💸 *Total Despesas: %s*\n", report.TotalExpense.Format())
	fmt.Fprintf(&b, "✅ *Total Disponível: %s*\n", report.TotalAvailable.Format())
	b.WriteString("──────────────────\n")

	b.WriteString("👤 *Por Membro:*\n")
	for _, line := range sortedMoneyLines(report.ByMember) {
		b.WriteString(line)
	}
	b.WriteString("──────────────────\n")

	b.WriteString("📊 *Por Categoria:*\n\n")
	for _, category := range sortedCategoryNames(report.ByCategory) {
		amount := report.ByCategory[category]
		fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(category))

		budget, ok := report.Budgets[category]
		if !ok {
			fmt.Fprintf(&b, "%s\n_(Sem meta)_\n\n", amount.Format())
			continue
		}

		fmt.Fprintf(&b, "%s de %s\n", amount.Format(), budget.Limit.Format())
		fmt.Fprintf(&b, "%s %.0f%%\n", progressBar(budget.Percentage), budget.Percentage)
		if amount.Cents > budget.Limit.Cents {
			over := core.Money{Cents: amount.Cents - budget.Limit.Cents}
			fmt.Fprintf(&b, "🚨 *Estourou: %s*\n", over.Format())
		} else {
			fmt.Fprintf(&b, "💰 Restam: %s\n", budget.Remaining.Format())
		}
		b.WriteString("\n")
	}

	if len(report.PercentTargets) > 0 {
		b.WriteString("🎯 *Metas Percentuais:*\n")
		for _, line := range sortedPercentLines(report.PercentTargets) {
			b.WriteString(line)
		}
	}

	return b.String()
}

func sortedCategoryNames(m map[string]core.Money) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]].Cents != m[names[j]].Cents {
			return m[names[i]].Cents > m[names[j]].Cents
		}
		return names[i] < names[j]
	})
	return names
}

func sortedPercentLines(m map[string]core.Money) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("• %s: %s\n", escapeMarkdown(name), m[name].FormatPercent()))
	}
	return lines
}
