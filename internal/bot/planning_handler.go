package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/services"
	"github.com/ceconelo/financaia/internal/session"
)

// PlanningHandler answers the planejamento commands. The one-line
// forms act immediately; the argumentless criar/editar/deletar forms
// start the equivalent wizard, converging on the same service calls.
type PlanningHandler struct {
	planning *services.PlanningService
	sessions session.Repository
}

func NewPlanningHandler(planning *services.PlanningService, sessions session.Repository) *PlanningHandler {
	return &PlanningHandler{planning: planning, sessions: sessions}
}

func (h *PlanningHandler) Name() string { return "planning" }

func (h *PlanningHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	if !hasCommand(msg.Norm, "planejamento") {
		return NotHandled, nil
	}

	switch msg.NormArg(1) {
	case "criar":
		return h.create(ctx, msg)
	case "aprovar":
		return h.approve(ctx, msg)
	case "editar":
		return h.edit(ctx, msg)
	case "renomear":
		return h.rename(ctx, msg)
	case "deletar", "excluir":
		return h.delete(ctx, msg)
	default:
		return h.list(ctx, msg)
	}
}

func (h *PlanningHandler) create(ctx context.Context, msg *Message) (Result, error) {
	category := msg.Arg(2)
	value := msg.Arg(3)

	if category == "" {
		h.sessions.Set(msg.User.ID, session.PlanCreateCategory, nil)
		msg.Reply(promptCreateCategory)
		return Handled, nil
	}
	if value == "" {
		msg.Reply("⚠️ Use: `/planejamento criar [Categoria] [Valor]`\n" +
			"Ex: `/planejamento criar Alimentação 500` ou `/planejamento criar Lazer 10%`")
		return Handled, nil
	}

	planType, amount, err := core.ParsePlanAmount(value)
	if err != nil {
		msg.Reply(invalidAmountReply)
		return Handled, nil
	}

	_, pending, err := h.planning.CreatePlan(ctx, msg.User.ID, category, planType, amount)
	if err != nil {
		return Handled, err
	}
	msg.Reply(planCreatedReply(category, planType, amount, pending))
	return Handled, nil
}

func (h *PlanningHandler) approve(ctx context.Context, msg *Message) (Result, error) {
	planID := msg.Arg(2)
	if planID == "" {
		msg.Reply("⚠️ Use: `/planejamento aprovar [ID]`")
		return Handled, nil
	}

	_, err := h.planning.ApprovePlan(ctx, msg.User.ID, planID, true)
	switch {
	case errors.Is(err, core.ErrForbidden):
		msg.Reply("❌ Apenas o administrador da família pode aprovar planos.")
		return Handled, nil
	case errors.Is(err, core.ErrPlanNotFound):
		msg.Reply("❌ Plano não encontrado.")
		return Handled, nil
	case err != nil:
		return Handled, err
	}

	msg.Reply("✅ Plano aprovado!")
	return Handled, nil
}

func (h *PlanningHandler) edit(ctx context.Context, msg *Message) (Result, error) {
	category := msg.Arg(2)
	value := msg.Arg(3)

	if category == "" {
		h.sessions.Set(msg.User.ID, session.PlanEditCategory, nil)
		msg.Reply(promptEditCategory)
		return Handled, nil
	}
	if value == "" {
		msg.Reply("⚠️ Use: `/planejamento editar [Categoria] [Novo Valor]`")
		return Handled, nil
	}

	planType, amount, err := core.ParsePlanAmount(value)
	if err != nil {
		msg.Reply(invalidAmountReply)
		return Handled, nil
	}

	update := services.PlanUpdate{NewAmount: &amount, NewType: &planType}
	if _, err := h.planning.UpdatePlan(ctx, msg.User.ID, category, update); err != nil {
		if reply, ok := planErrorReply(err); ok {
			msg.Reply(reply)
			return Handled, nil
		}
		return Handled, err
	}

	msg.Reply(fmt.Sprintf("✅ Plano de *%s* atualizado para %s!",
		category, core.FormatPlanAmount(planType, amount)))
	return Handled, nil
}

func (h *PlanningHandler) rename(ctx context.Context, msg *Message) (Result, error) {
	current := msg.Arg(2)
	newName := msg.Arg(3)
	if current == "" || newName == "" {
		msg.Reply("⚠️ Use: `/planejamento renomear [Categoria Atual] [Novo Nome]`")
		return Handled, nil
	}

	update := services.PlanUpdate{NewCategory: &newName}
	if _, err := h.planning.UpdatePlan(ctx, msg.User.ID, current, update); err != nil {
		if reply, ok := planErrorReply(err); ok {
			msg.Reply(reply)
			return Handled, nil
		}
		return Handled, err
	}

	msg.Reply(fmt.Sprintf("✅ Categoria renomeada de *%s* para *%s*!", current, newName))
	return Handled, nil
}

func (h *PlanningHandler) delete(ctx context.Context, msg *Message) (Result, error) {
	category := msg.Arg(2)
	if category == "" {
		h.sessions.Set(msg.User.ID, session.PlanDeleteCategory, nil)
		msg.Reply(promptDeleteCategory)
		return Handled, nil
	}

	if err := h.planning.DeletePlan(ctx, msg.User.ID, category); err != nil {
		if reply, ok := planErrorReply(err); ok {
			msg.Reply(reply)
			return Handled, nil
		}
		return Handled, err
	}

	msg.Reply(fmt.Sprintf("✅ Plano de *%s* excluído!", category))
	return Handled, nil
}

func (h *PlanningHandler) list(ctx context.Context, msg *Message) (Result, error) {
	plans, err := h.planning.GetPlans(ctx, msg.User.ID)
	if err != nil {
		return Handled, err
	}

	var b strings.Builder
	b.WriteString("🎯 *Planejamento Financeiro*\n\n")

	if len(plans.ActivePlans) == 0 && len(plans.PendingPlans) == 0 {
		b.WriteString("Nenhum plano ativo.\n\n")
	} else {
		if len(plans.ActivePlans) > 0 {
			b.WriteString("*Metas Ativas:*\n")
			for _, p := range plans.ActivePlans {
				fmt.Fprintf(&b, "• %s: %s\n", escapeMarkdown(p.Category),
					core.FormatPlanAmount(p.Type, p.Amount))
			}
		}
		if len(plans.PendingPlans) > 0 {
			b.WriteString("\n⏳ *Pendentes de Aprovação:*\n")
			for _, p := range plans.PendingPlans {
				fmt.Fprintf(&b, "• %s: %s\n", escapeMarkdown(p.Category),
					core.FormatPlanAmount(p.Type, p.Amount))
				fmt.Fprintf(&b, "  _Aprovar:_ `/planejamento aprovar %s`\n", p.ID)
			}
		}
	}

	b.WriteString("\n──────────────────\n")
	b.WriteString("⚙️ *Gerenciar Metas:*\n")
	b.WriteString("• *Criar:* `/planejamento criar [Categoria] [Valor]`\n")
	b.WriteString("• *Alterar:* `/planejamento editar [Categoria] [Valor]`\n")
	b.WriteString("• *Excluir:* `/planejamento deletar [Categoria]`\n")
	b.WriteString("_Ex: /planejamento criar Lazer 500_")

	msg.Reply(b.String())
	return Handled, nil
}

func planCreatedReply(category string, planType core.PlanType, amount core.Money, pending bool) string {
	if pending {
		return "📝 *Sugestão enviada!* O administrador da família precisa aprovar este plano."
	}
	return fmt.Sprintf("✅ *Plano criado!* Meta de %s para %s.",
		core.FormatPlanAmount(planType, amount), category)
}

// planErrorReply maps the planning sentinels to their user-facing
// replies. Unknown errors go back to the stage boundary.
func planErrorReply(err error) (string, bool) {
	switch {
	case errors.Is(err, core.ErrPlanNotFound):
		return "❌ Plano não encontrado.", true
	case errors.Is(err, core.ErrForbidden):
		return "❌ Você não tem permissão para alterar este plano.", true
	case errors.Is(err, core.ErrInvalidAmount):
		return invalidAmountReply, true
	}
	return "", false
}
