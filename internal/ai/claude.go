package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ceconelo/financaia/internal/core"
)

const parsePrompt = `Você é um assistente financeiro. Analise a mensagem e extraia os dados financeiros.
Responda APENAS com um JSON no seguinte formato:
{
  "amount": "número decimal sem símbolo de moeda",
  "type": "INCOME" ou "EXPENSE",
  "category": "alimentação" | "transporte" | "saúde" | "lazer" | "educação" | "moradia" | "salário" | "freelance" | "outros",
  "description": "descrição breve"
}

Se não houver informação financeira, responda com: {"error": "sem intenção financeira"}

Mensagem do usuário: %q`

const receiptPrompt = `Analise esta nota fiscal ou comprovante e extraia o valor total, a categoria e o estabelecimento.
Responda APENAS com JSON:
{"amount": "número decimal", "type": "EXPENSE", "category": "categoria", "description": "nome do estabelecimento"}`

// ClaudeParser implements Parser with the Anthropic Messages API.
type ClaudeParser struct {
	client anthropic.Client
	model  string
}

func NewClaudeParser(apiKey, model string) *ClaudeParser {
	return &ClaudeParser{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *ClaudeParser) ParseTransaction(ctx context.Context, text string) (*ParsedTransaction, error) {
	return p.complete(ctx, []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(fmt.Sprintf(parsePrompt, text)),
	})
}

// TranscribeAudio is not available through the Messages API; voice
// notes need a dedicated transcription collaborator.
func (p *ClaudeParser) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	return "", ErrUnsupported
}

func (p *ClaudeParser) AnalyzeReceipt(ctx context.Context, image []byte) (*ParsedTransaction, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	parsed, err := p.complete(ctx, []anthropic.ContentBlockParamUnion{
		anthropic.NewImageBlockBase64("image/jpeg", encoded),
		anthropic.NewTextBlock(receiptPrompt),
	})
	if err != nil {
		return nil, err
	}
	// Receipts are always expenses regardless of what the model answered.
	parsed.Type = core.Expense
	return parsed, nil
}

func (p *ClaudeParser) complete(ctx context.Context, blocks []anthropic.ContentBlockParamUnion) (*ParsedTransaction, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			{Role: anthropic.MessageParamRoleUser, Content: blocks},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call failed: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	return decodeResponse(responseText)
}

// decodeResponse extracts the JSON object from a model reply, which
// may be wrapped in markdown fences or prose.
func decodeResponse(text string) (*ParsedTransaction, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var raw struct {
		Amount      json.Number `json:"amount"`
		Type        string      `json:"type"`
		Category    string      `json:"category"`
		Description string      `json:"description"`
		Error       string      `json:"error"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	if raw.Error != "" {
		return nil, ErrNoIntent
	}

	cents, err := core.ParseDecimalToCents(raw.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q in response: %w", raw.Amount.String(), err)
	}

	txType := core.TransactionType(strings.ToUpper(raw.Type))
	if txType != core.Income && txType != core.Expense {
		return nil, fmt.Errorf("invalid type %q in response", raw.Type)
	}

	category := strings.ToLower(strings.TrimSpace(raw.Category))
	if category == "" {
		category = "outros"
	}

	return &ParsedTransaction{
		Amount:      core.Money{Cents: cents},
		Type:        txType,
		Category:    category,
		Description: raw.Description,
	}, nil
}
