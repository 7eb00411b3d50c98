package ai

import (
	"context"
	"regexp"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/ceconelo/financaia/internal/core"
)

// seedVocabulary bootstraps the naive Bayes classifier with the
// curated category vocabulary, so the offline parser is useful before
// any history exists. Unknown categories from real transactions are
// learned on top of these.
var seedVocabulary = map[string][]string{
	"alimentação": {"pizza", "lanche", "restaurante", "mercado", "supermercado", "ifood", "comida", "padaria", "almoço", "almoco", "jantar", "café", "cafe"},
	"transporte":  {"uber", "gasolina", "combustível", "combustivel", "ônibus", "onibus", "metrô", "metro", "taxi", "estacionamento", "pedágio", "pedagio"},
	"saúde":       {"farmácia", "farmacia", "remédio", "remedio", "médico", "medico", "consulta", "dentista", "academia", "plano"},
	"lazer":       {"cinema", "show", "bar", "viagem", "jogo", "netflix", "spotify", "streaming", "festa"},
	"educação":    {"curso", "livro", "faculdade", "escola", "mensalidade", "apostila"},
	"moradia":     {"aluguel", "luz", "água", "agua", "internet", "condomínio", "condominio", "gás", "gas", "iptu"},
	"salário":     {"salário", "salario", "pagamento", "holerite"},
	"freelance":   {"freela", "freelance", "projeto", "bico"},
	"outros":      {"compra", "presente", "diversos"},
}

var (
	amountPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	incomeWords   = map[string]bool{
		"recebi": true, "ganhei": true, "salário": true, "salario": true,
		"pagamento": true, "renda": true, "entrou": true, "caiu": true,
	}
)

// KeywordParser is the offline fallback: a naive Bayes classifier over
// transaction descriptions plus a regex for the amount. It cannot
// handle audio or images.
type KeywordParser struct {
	classifier *bayesian.Classifier
	classes    []bayesian.Class
}

func NewKeywordParser() *KeywordParser {
	classes := make([]bayesian.Class, 0, len(seedVocabulary))
	for category := range seedVocabulary {
		classes = append(classes, bayesian.Class(category))
	}
	classifier := bayesian.NewClassifier(classes...)
	for category, words := range seedVocabulary {
		classifier.Learn(words, bayesian.Class(category))
	}
	return &KeywordParser{classifier: classifier, classes: classes}
}

// Learn feeds a past transaction into the classifier so user history
// sharpens future categorization.
func (p *KeywordParser) Learn(description, category string) {
	class := bayesian.Class(core.CategoryKey(category))
	for _, known := range p.classes {
		if known == class {
			p.classifier.Learn(tokenize(description), class)
			return
		}
	}
	// Unknown categories are accepted verbatim but not trainable
	// without rebuilding the classifier; skip them.
}

func (p *KeywordParser) ParseTransaction(ctx context.Context, text string) (*ParsedTransaction, error) {
	match := amountPattern.FindString(text)
	if match == "" {
		return nil, ErrNoIntent
	}
	cents, err := core.ParseDecimalToCents(match)
	if err != nil {
		return nil, ErrNoIntent
	}

	txType := core.Expense
	words := tokenize(text)
	for _, w := range words {
		if incomeWords[w] {
			txType = core.Income
			break
		}
	}

	category := "outros"
	if len(words) > 0 {
		scores, best, _ := p.classifier.LogScores(words)
		if len(scores) > 0 {
			category = string(p.classes[best])
		}
	}

	return &ParsedTransaction{
		Amount:      core.Money{Cents: cents},
		Type:        txType,
		Category:    category,
		Description: strings.TrimSpace(text),
	}, nil
}

func (p *KeywordParser) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	return "", ErrUnsupported
}

func (p *KeywordParser) AnalyzeReceipt(ctx context.Context, image []byte) (*ParsedTransaction, error) {
	return nil, ErrUnsupported
}

var nonLetter = regexp.MustCompile(`[^\p{L}]+`)

func tokenize(text string) []string {
	var words []string
	for _, w := range nonLetter.Split(strings.ToLower(text), -1) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}
