package currency

import (
	"context"
	"errors"
	"fmt"

	"finstudent/internal/core"
	"finstudent/internal/log"
	"finstudent/internal/storage"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Preferences reads and writes the persisted currency preference.
type Preferences struct {
	kv     storage.KeyValueStore
	logger *log.Logger
}

func NewPreferences(kv storage.KeyValueStore, logger *log.Logger) *Preferences {
	if logger == nil {
		logger = log.Discard()
	}
	return &Preferences{kv: kv, logger: logger.WithComponent(log.ComponentCurrency)}
}

// Currency returns the stored currency code, or USD when none is stored or
// the stored value is no longer supported.
func (p *Preferences) Currency(ctx context.Context) string {
	code, err := p.kv.Get(ctx, storage.KeyCurrency)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("Failed to read currency preference", log.FieldError, err)
		}
		return DefaultCode
	}
	if !IsSupported(code) {
		return DefaultCode
	}
	return code
}

// SetCurrency stores code. Unsupported codes leave the stored value unchanged.
func (p *Preferences) SetCurrency(ctx context.Context, code string) error {
	if !IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	if err := p.kv.Set(ctx, storage.KeyCurrency, code); err != nil {
		return fmt.Errorf("save currency preference: %w", err)
	}
	p.logger.Info("Currency preference updated", log.FieldCurrency, code)
	return nil
}

// Format renders amount in the stored currency.
func (p *Preferences) Format(ctx context.Context, amount core.Money) string {
	return Format(amount, p.Currency(ctx))
}

// Formatter binds the stored currency once so the result can be handed to
// core.SummarizeBudgets and the page renderers.
func (p *Preferences) Formatter(ctx context.Context) core.MoneyFormatter {
	code := p.Currency(ctx)
	return func(m core.Money) string { return Format(m, code) }
}
