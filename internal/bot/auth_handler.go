package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/services"
)

const lockedMenuReply = "🔒 *Acesso Restrito*\n\n" +
	"O FinancaIA é exclusivo para convidados.\n\n" +
	"1️⃣ Se você tem uma chave, envie ela agora.\n" +
	"2️⃣ Se não tem, envie seu *EMAIL* para entrar na fila de espera."

// AuthHandler is the gatekeeper: it intercepts everything from an
// unauthorized user and passes authorized users straight through.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Name() string { return "auth" }

func (h *AuthHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	if msg.User.IsAuthorized {
		return NotHandled, nil
	}

	text := strings.TrimSpace(msg.Text)

	// A short single word without @ looks like an access key attempt.
	if looksLikeAccessKey(text) {
		err := h.auth.RedeemKey(ctx, msg.User.ID, text)
		switch {
		case err == nil:
			msg.User.IsAuthorized = true
			msg.Reply("🎉 *Acesso Liberado!* Bem-vindo ao FinancaIA.\n\nUse */ajuda* para começar.")
			return Handled, nil
		case errors.Is(err, core.ErrKeyNotFound), errors.Is(err, core.ErrKeyUsed):
			// Fall through to the locked menu.
		default:
			return Handled, err
		}
	}

	if looksLikeEmail(text) {
		if err := h.auth.JoinWaitlist(ctx, msg.User.ID, text); err != nil {
			return Handled, err
		}
		msg.Reply("✅ *Você está na fila de espera!*\n\nAssim que liberarmos seu acesso, você receberá um aviso aqui.")
		return Handled, nil
	}

	msg.Reply(lockedMenuReply)
	return Handled, nil
}

func looksLikeAccessKey(text string) bool {
	return len(text) > 4 && len(text) < 20 &&
		!strings.Contains(text, " ") && !strings.Contains(text, "@")
}

func looksLikeEmail(text string) bool {
	return strings.Contains(text, "@") && strings.Contains(text, ".") &&
		!strings.Contains(text, " ")
}
