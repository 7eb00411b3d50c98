// Package ai turns free-form user text (or transcribed audio, or a
// receipt photo) into structured transaction data.
package ai

import (
	"context"
	"errors"

	"github.com/ceconelo/financaia/internal/core"
)

var (
	// ErrNoIntent means the message carried no recognizable financial
	// intent. Callers reply with a generic prompt instead of failing.
	ErrNoIntent = errors.New("no financial intent detected")

	// ErrUnsupported means the parser implementation cannot handle
	// this media kind.
	ErrUnsupported = errors.New("media kind not supported by this parser")
)

// ParsedTransaction is the structured result of parsing a message.
type ParsedTransaction struct {
	Amount      core.Money
	Type        core.TransactionType
	Category    string
	Description string
}

// Parser extracts transactions from user input. Implementations must
// honor context cancellation; callers bound every call with a timeout
// and treat expiry as a parse failure.
type Parser interface {
	ParseTransaction(ctx context.Context, text string) (*ParsedTransaction, error)
	TranscribeAudio(ctx context.Context, audio []byte) (string, error)
	AnalyzeReceipt(ctx context.Context, image []byte) (*ParsedTransaction, error)
}

// WithFallback chains two parsers: backup takes over when primary
// fails for any reason other than a definitive no-intent answer.
func WithFallback(primary, backup Parser) Parser {
	return &fallbackParser{primary: primary, backup: backup}
}

type fallbackParser struct {
	primary Parser
	backup  Parser
}

func (f *fallbackParser) ParseTransaction(ctx context.Context, text string) (*ParsedTransaction, error) {
	parsed, err := f.primary.ParseTransaction(ctx, text)
	if err == nil || errors.Is(err, ErrNoIntent) {
		return parsed, err
	}
	return f.backup.ParseTransaction(ctx, text)
}

func (f *fallbackParser) TranscribeAudio(ctx context.Context, audio []byte) (string, error) {
	text, err := f.primary.TranscribeAudio(ctx, audio)
	if err == nil {
		return text, nil
	}
	return f.backup.TranscribeAudio(ctx, audio)
}

func (f *fallbackParser) AnalyzeReceipt(ctx context.Context, image []byte) (*ParsedTransaction, error) {
	parsed, err := f.primary.AnalyzeReceipt(ctx, image)
	if err == nil || errors.Is(err, ErrNoIntent) {
		return parsed, err
	}
	return f.backup.AnalyzeReceipt(ctx, image)
}
