package pages

import (
	"context"
	"io"

	"finstudent/internal/core"
	"finstudent/internal/resources"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (resources.AuthResponse, error)
	Register(ctx context.Context, req resources.RegisterRequest) (resources.AuthResponse, error)
}

// LoginPage signs a user in and stores the session.
type LoginPage struct {
	auth    Authenticator
	session Session

	Email string
	User  *core.User
	Error string
}

func NewLoginPage(auth Authenticator, session Session) *LoginPage {
	return &LoginPage{auth: auth, session: session}
}

// Submit validates the form, calls the server and starts the session. The
// returned error is also kept as the page error.
func (p *LoginPage) Submit(ctx context.Context, form core.LoginForm) error {
	p.Email = form.Email
	p.User = nil
	p.Error = ""

	if err := form.Validate(); err != nil {
		p.Error = "Please enter your email and password"
		return err
	}
	resp, err := p.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	if err := p.session.Login(ctx, resp.User, resp.Access, resp.Refresh); err != nil {
		p.Error = errorText(err)
		return err
	}
	p.User = &resp.User
	return nil
}

func (p *LoginPage) Render(w io.Writer) error {
	t := newTheme(w)
	var out page
	out.line(t.title.Render("Sign in to FinStudent"))
	switch {
	case p.Error != "":
		out.line(t.banner(p.Error))
	case p.User != nil:
		out.line(t.success.Render("Welcome back, " + p.User.FullName() + "!"))
	}
	return out.writeTo(w)
}

// RegisterPage creates an account and signs the new user in.
type RegisterPage struct {
	auth    Authenticator
	session Session

	Strength core.PasswordStrength
	User     *core.User
	Error    string
}

func NewRegisterPage(auth Authenticator, session Session) *RegisterPage {
	return &RegisterPage{auth: auth, session: session}
}

func (p *RegisterPage) Submit(ctx context.Context, form core.RegisterForm) error {
	p.Strength = core.StrengthOf(form.Password)
	p.User = nil
	p.Error = ""

	if err := form.Validate(); err != nil {
		p.Error = errorText(err)
		return err
	}
	resp, err := p.auth.Register(ctx, resources.NewRegisterRequest(form))
	if err != nil {
		p.Error = errorText(err)
		return err
	}
	if err := p.session.Login(ctx, resp.User, resp.Access, resp.Refresh); err != nil {
		p.Error = errorText(err)
		return err
	}
	p.User = &resp.User
	return nil
}

func (p *RegisterPage) Render(w io.Writer) error {
	t := newTheme(w)
	var out page
	out.line(t.title.Render("Create your FinStudent account"))
	if p.Strength != "" {
		out.line(t.field("Password strength", string(p.Strength)))
	}
	switch {
	case p.Error != "":
		out.line(t.banner(p.Error))
	case p.User != nil:
		out.line(t.success.Render("Account created. Signed in as " + p.User.Email))
	}
	return out.writeTo(w)
}
