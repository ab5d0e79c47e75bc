package pages

import (
	"context"
	"io"

	"finstudent/internal/core"
	"finstudent/internal/currency"
)

// Preferences is the currency preference service.
type Preferences interface {
	Currency(ctx context.Context) string
	SetCurrency(ctx context.Context, code string) error
}

type SettingsPage struct {
	prefs    Preferences
	identity Identity

	// Server is the API root the client talks to.
	Server   string
	Currency string
	User     *core.User
	Notice   string
	Error    string
}

func NewSettingsPage(prefs Preferences, identity Identity, server string) *SettingsPage {
	return &SettingsPage{prefs: prefs, identity: identity, Server: server}
}

func (p *SettingsPage) Load(ctx context.Context) {
	p.Currency = p.prefs.Currency(ctx)
	p.User = nil
	if p.identity != nil {
		if u, ok := p.identity.User(); ok {
			p.User = &u
		}
	}
}

// SetCurrency stores a new preference; unsupported codes keep the old one.
func (p *SettingsPage) SetCurrency(ctx context.Context, code string) error {
	p.Notice = ""
	p.Error = ""
	if err := p.prefs.SetCurrency(ctx, code); err != nil {
		p.Error = errorText(err)
		return err
	}
	p.Load(ctx)
	p.Notice = "Currency set to " + currency.Lookup(p.Currency).Name
	return nil
}

func (p *SettingsPage) Render(w io.Writer) error {
	t := newTheme(w)
	var out page
	out.line(t.title.Render("Settings"))
	if p.Error != "" {
		out.line(t.banner(p.Error))
	}
	if p.Notice != "" {
		out.line(t.success.Render(p.Notice))
	}

	out.line(t.heading.Render("Profile"))
	if p.User != nil {
		out.line(t.field("Name", p.User.FullName()))
		out.line(t.field("Email", p.User.Email))
	} else {
		out.line(t.muted.Render("Not signed in."))
	}
	if p.Server != "" {
		out.line(t.field("Server", p.Server))
	}

	out.line(t.heading.Render("Currency"))
	for _, opt := range currency.Options() {
		marker := "  "
		if opt.Code == p.Currency {
			marker = "● "
		}
		out.line(marker + opt.Code + " " + opt.Symbol + " " + t.label.Render(opt.Name))
	}
	return out.writeTo(w)
}
