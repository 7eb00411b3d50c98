package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/session"
)

func TestWizardCreatePlanHappyPath(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)
	ctx := context.Background()

	reply := bot.send(t, user, "planejamento criar")
	if !strings.Contains(reply, "Qual categoria") {
		t.Fatalf("expected category prompt, got %q", reply)
	}

	reply = bot.send(t, user, "Alimentação")
	if !strings.Contains(reply, "Alimentação") || !strings.Contains(reply, "valor") {
		t.Fatalf("expected amount prompt echoing the category, got %q", reply)
	}

	reply = bot.send(t, user, "10%")
	if !strings.Contains(reply, "Plano criado") {
		t.Fatalf("expected creation confirmation, got %q", reply)
	}

	if _, active := bot.sessions.Get(user.ID); active {
		t.Error("session must be cleared after the terminal step")
	}

	plans, err := bot.store.ListUserPlans(ctx, user.ID, core.PlanActive)
	if err != nil {
		t.Fatalf("ListUserPlans failed: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	if plans[0].Type != core.PlanPercentage || plans[0].Amount.Cents != 1000 {
		t.Errorf("expected PERCENTAGE 10%%, got %v %d", plans[0].Type, plans[0].Amount.Cents)
	}
	if plans[0].Category != "Alimentação" {
		t.Errorf("category casing must survive, got %q", plans[0].Category)
	}
}

func TestWizardInvalidAmountRePrompts(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento criar")
	bot.send(t, user, "Lazer")

	reply := bot.send(t, user, "muito dinheiro")
	if !strings.Contains(reply, "Valor inválido") {
		t.Fatalf("expected re-prompt, got %q", reply)
	}

	// State and collected category survive the bad input.
	sess, ok := bot.sessions.Get(user.ID)
	if !ok {
		t.Fatal("session must survive an invalid amount")
	}
	if sess.State != session.PlanCreateAmount {
		t.Errorf("state = %v, want PLAN_CREATE_AMOUNT", sess.State)
	}
	if sess.Data["category"] != "Lazer" {
		t.Errorf("category = %q, want Lazer", sess.Data["category"])
	}

	// A valid retry completes the flow.
	reply = bot.send(t, user, "R$ 250,50")
	if !strings.Contains(reply, "Plano criado") {
		t.Fatalf("expected creation confirmation, got %q", reply)
	}
}

func TestWizardCancel(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento criar")
	reply := bot.send(t, user, "cancelar")
	if !strings.Contains(reply, "cancelado") {
		t.Fatalf("expected cancel confirmation, got %q", reply)
	}
	if _, active := bot.sessions.Get(user.ID); active {
		t.Error("cancel must clear the session")
	}

	// With the session gone the next message is a normal command.
	reply = bot.send(t, user, "ajuda")
	if !strings.Contains(reply, "Central de Ajuda") {
		t.Errorf("expected help menu after cancel, got %q", reply)
	}
}

func TestWizardTakesPrecedenceOverCommands(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento criar")

	// "saldo" mid-wizard is the category answer, not the command.
	reply := bot.send(t, user, "saldo")
	if strings.Contains(reply, "saldo atual") {
		t.Fatalf("wizard must consume the message, got the balance reply %q", reply)
	}
	if !strings.Contains(reply, "valor") {
		t.Fatalf("expected the amount prompt, got %q", reply)
	}
}

func TestWizardEditValue(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento criar Lazer 500")

	reply := bot.send(t, user, "planejamento editar")
	if !strings.Contains(reply, "Qual categoria") {
		t.Fatalf("expected category prompt, got %q", reply)
	}

	reply = bot.send(t, user, "Lazer")
	if !strings.Contains(reply, "1") || !strings.Contains(reply, "2") {
		t.Fatalf("expected the option menu, got %q", reply)
	}

	// Out-of-range option re-prompts without advancing.
	reply = bot.send(t, user, "3")
	if !strings.Contains(reply, "1") {
		t.Fatalf("expected option re-prompt, got %q", reply)
	}

	bot.send(t, user, "1")
	reply = bot.send(t, user, "750")
	if !strings.Contains(reply, "atualizado") {
		t.Fatalf("expected update confirmation, got %q", reply)
	}

	plans, err := bot.store.ListUserPlans(context.Background(), user.ID, core.PlanActive)
	if err != nil {
		t.Fatalf("ListUserPlans failed: %v", err)
	}
	if len(plans) != 1 || plans[0].Amount.Cents != 75000 {
		t.Errorf("expected 75000 cents, got %+v", plans)
	}
}

func TestWizardEditRename(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento criar Lazer 500")
	bot.send(t, user, "planejamento editar")
	bot.send(t, user, "lazer")
	bot.send(t, user, "2")

	reply := bot.send(t, user, "Diversão")
	if !strings.Contains(reply, "renomeada") {
		t.Fatalf("expected rename confirmation, got %q", reply)
	}

	plans, err := bot.store.ListUserPlans(context.Background(), user.ID, core.PlanActive)
	if err != nil {
		t.Fatalf("ListUserPlans failed: %v", err)
	}
	if len(plans) != 1 || plans[0].Category != "Diversão" {
		t.Errorf("expected renamed plan, got %+v", plans)
	}
}

func TestWizardDelete(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento criar Lazer 500")
	bot.send(t, user, "planejamento deletar")

	reply := bot.send(t, user, "LAZER")
	if !strings.Contains(reply, "excluído") {
		t.Fatalf("expected deletion confirmation, got %q", reply)
	}

	plans, err := bot.store.ListUserPlans(context.Background(), user.ID, core.PlanActive)
	if err != nil {
		t.Fatalf("ListUserPlans failed: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("expected no active plans, got %+v", plans)
	}
}

func TestWizardDeleteUnknownCategory(t *testing.T) {
	bot := newTestBot(t)
	user := bot.user(t, "tg_100", true)

	bot.send(t, user, "planejamento deletar")
	reply := bot.send(t, user, "Inexistente")
	if !strings.Contains(reply, "não encontrado") {
		t.Fatalf("expected not-found reply, got %q", reply)
	}
	if _, active := bot.sessions.Get(user.ID); active {
		t.Error("terminal step must clear the session even on not-found")
	}
}
