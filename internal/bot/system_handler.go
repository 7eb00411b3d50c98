package bot

import (
	"context"
	"fmt"

	"github.com/ceconelo/financaia/internal/services"
)

const helpMenu = `❓ *Central de Ajuda FinancaIA*

Escolha um tópico para ver os comandos:

💰 */ajuda financas*
_Saldo, Resumo, Transações_

👨‍👩‍👧‍👦 */ajuda familia*
_Criar grupo, Entrar, Relatórios_

🎯 */ajuda planejamento*
_Criar metas, Editar, Acompanhar_

⚙️ */ajuda outros*
_Configurar nome, Gamificação_`

var helpTopics = map[string]string{
	"financas": `💰 *Ajuda: Finanças*

• *saldo*
  _Ver seu saldo atual._
• *resumo*
  _Ver relatório de gastos do mês._
• *"Gastei 50 em pizza"*
  _Registrar gastos com linguagem natural._
• *Enviar foto/áudio*
  _Registrar gastos automaticamente._`,

	"familia": `👨‍👩‍👧‍👦 *Ajuda: Família*

• *familia*
  _Ver painel da família (gastos por membro/categoria)._
• */familia criar*
  _Criar um novo grupo familiar._
• */familia entrar [código]*
  _Entrar em um grupo existente._`,

	"planejamento": `🎯 *Ajuda: Planejamento*

• */planejamento criar [Cat] [Valor]*
  _Criar meta (Ex: /planejamento criar Lazer 500)_
• */planejamento editar [Cat] [Valor]*
  _Alterar valor da meta._
• */planejamento renomear [Cat] [Novo]*
  _Renomear categoria da meta._
• */planejamento aprovar [ID]*
  _Aprovar sugestão (apenas Admin)._`,

	"outros": `⚙️ *Ajuda: Outros*

• */nome [Seu Nome]*
  _Alterar como seu nome aparece na família._
• *Gamificação*
  _Você ganha XP a cada registro!_`,
}

// SystemHandler answers the hierarchical help menu and the display
// name command.
type SystemHandler struct {
	finance *services.FinanceService
}

func NewSystemHandler(finance *services.FinanceService) *SystemHandler {
	return &SystemHandler{finance: finance}
}

func (h *SystemHandler) Name() string { return "system" }

func (h *SystemHandler) Handle(ctx context.Context, msg *Message) (Result, error) {
	if hasCommand(msg.Norm, "ajuda") {
		return h.help(msg)
	}
	if hasCommand(msg.Norm, "nome") {
		return h.setName(ctx, msg)
	}
	return NotHandled, nil
}

func (h *SystemHandler) help(msg *Message) (Result, error) {
	topic := msg.NormArg(1)
	if topic == "" {
		msg.Reply(helpMenu)
		return Handled, nil
	}
	if text, ok := helpTopics[topic]; ok {
		msg.Reply(text)
		return Handled, nil
	}
	msg.Reply("❌ Tópico não encontrado. Digite */ajuda* para ver o menu.")
	return Handled, nil
}

func (h *SystemHandler) setName(ctx context.Context, msg *Message) (Result, error) {
	// Name with original casing.
	name := msg.ArgTail(1)
	if name == "" {
		msg.Reply("⚠️ Use: `/nome [Seu Nome]` para alterar como você aparece na família.")
		return Handled, nil
	}

	if err := h.finance.SetUserName(ctx, msg.User.ID, name); err != nil {
		return Handled, err
	}
	msg.Reply(fmt.Sprintf("✅ Nome atualizado para: *%s*", escapeMarkdown(name)))
	return Handled, nil
}
