package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/services"
	"github.com/ceconelo/financaia/internal/session"
)

const (
	promptCreateCategory = "📝 Qual categoria você quer planejar? (ex: Alimentação)\n\n_Digite *cancelar* para sair._"
	promptDeleteCategory = "🗑️ Qual categoria você quer excluir?\n\n_Digite *cancelar* para sair._"
	promptEditCategory   = "✏️ Qual categoria você quer editar?\n\n_Digite *cancelar* para sair._"

	invalidAmountReply  = "❌ Valor inválido. Envie um número como *500*, *49,90* ou *10%*."
	wizardCanceledReply = "👍 Ok, cancelado."
)

// WizardHandler runs the multi-turn plan flows. It sits right after
// the auth gate: an active wizard consumes every message except the
// cancel words, so a half-finished flow cannot be hijacked by a
// stateless command.
type WizardHandler struct {
	planning *services.PlanningService
	sessions session.Repository
}

func NewWizardHandler(planning *services.PlanningService, sessions session.Repository) *WizardHandler {
	return &WizardHandler{planning: planning, sessions: sessions}
}

func (h *WizardHandler) Name() string { return "wizard" }

func (h *WizardHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	sess, ok := h.sessions.Get(msg.User.ID)
	if !ok {
		return NotHandled, nil
	}

	if msg.Norm == "cancelar" || msg.Norm == "cancel" {
		h.sessions.Clear(msg.User.ID)
		msg.Reply(wizardCanceledReply)
		return Handled, nil
	}

	input := strings.TrimSpace(msg.Text)
	if input == "" {
		msg.Reply("🤔 Não entendi. Responda a pergunta ou digite *cancelar*.")
		return Handled, nil
	}

	switch sess.State {
	case session.PlanCreateCategory:
		h.sessions.Set(msg.User.ID, session.PlanCreateAmount, map[string]string{"category": input})
		msg.Reply(fmt.Sprintf("💰 Qual o valor da meta para *%s*? (ex: 500 ou 10%%)", input))
		return Handled, nil

	case session.PlanCreateAmount:
		return h.finishCreate(ctx, msg, sess.Data["category"], input)

	case session.PlanDeleteCategory:
		return h.finishDelete(ctx, msg, input)

	case session.PlanEditCategory:
		h.sessions.Set(msg.User.ID, session.PlanEditOption, map[string]string{"category": input})
		msg.Reply(fmt.Sprintf("O que você quer alterar em *%s*?\n\n1️⃣ Valor\n2️⃣ Nome\n\n_Responda com 1 ou 2._", input))
		return Handled, nil

	case session.PlanEditOption:
		return h.chooseEditOption(msg, sess, input)

	case session.PlanEditNewName:
		return h.finishRename(ctx, msg, sess.Data["category"], input)

	case session.PlanEditNewValue:
		return h.finishRevalue(ctx, msg, sess.Data["category"], input)
	}

	// An unknown state means a stale session from an older build.
	h.sessions.Clear(msg.User.ID)
	return NotHandled, nil
}

func (h *WizardHandler) finishCreate(ctx context.Context, msg *Message, category, value string) (Result, error) {
	planType, amount, err := core.ParsePlanAmount(value)
	if err != nil {
		// Re-prompt in place: the state and collected data stay as
		// they are, only valid input advances.
		msg.Reply(invalidAmountReply)
		return Handled, nil
	}

	_, pending, err := h.planning.CreatePlan(ctx, msg.User.ID, category, planType, amount)
	if err != nil {
		h.sessions.Clear(msg.User.ID)
		return Handled, err
	}

	h.sessions.Clear(msg.User.ID)
	msg.Reply(planCreatedReply(category, planType, amount, pending))
	return Handled, nil
}

func (h *WizardHandler) finishDelete(ctx context.Context, msg *Message, category string) (Result, error) {
	err := h.planning.DeletePlan(ctx, msg.User.ID, category)
	h.sessions.Clear(msg.User.ID)
	if err != nil {
		if reply, ok := planErrorReply(err); ok {
			msg.Reply(reply)
			return Handled, nil
		}
		return Handled, err
	}
	msg.Reply(fmt.Sprintf("✅ Plano de *%s* excluído!", category))
	return Handled, nil
}

func (h *WizardHandler) chooseEditOption(msg *Message, sess session.Session, input string) (Result, error) {
	category := sess.Data["category"]
	switch strings.TrimSpace(input) {
	case "1":
		h.sessions.Set(msg.User.ID, session.PlanEditNewValue, map[string]string{"category": category})
		msg.Reply(fmt.Sprintf("💰 Qual o novo valor para *%s*? (ex: 500 ou 10%%)", category))
	case "2":
		h.sessions.Set(msg.User.ID, session.PlanEditNewName, map[string]string{"category": category})
		msg.Reply(fmt.Sprintf("✏️ Qual o novo nome para *%s*?", category))
	default:
		msg.Reply("🤔 Responda com *1* (valor) ou *2* (nome), ou digite *cancelar*.")
	}
	return Handled, nil
}

func (h *WizardHandler) finishRename(ctx context.Context, msg *Message, category, newName string) (Result, error) {
	update := services.PlanUpdate{NewCategory: &newName}
	_, err := h.planning.UpdatePlan(ctx, msg.User.ID, category, update)
	h.sessions.Clear(msg.User.ID)
	if err != nil {
		if reply, ok := planErrorReply(err); ok {
			msg.Reply(reply)
			return Handled, nil
		}
		return Handled, err
	}
	msg.Reply(fmt.Sprintf("✅ Categoria renomeada de *%s* para *%s*!", category, newName))
	return Handled, nil
}

func (h *WizardHandler) finishRevalue(ctx context.Context, msg *Message, category, value string) (Result, error) {
	planType, amount, parseErr := core.ParsePlanAmount(value)
	if parseErr != nil {
		msg.Reply(invalidAmountReply)
		return Handled, nil
	}

	update := services.PlanUpdate{NewAmount: &amount, NewType: &planType}
	_, err := h.planning.UpdatePlan(ctx, msg.User.ID, category, update)
	h.sessions.Clear(msg.User.ID)
	if err != nil {
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
