package resources

import (
	"context"
	"net/http"
	"strings"

	"finstudent/internal/api"
	"finstudent/internal/core"
)

const (
	pathLogin    = "/auth/login/"
	pathRegister = "/auth/register/"
	pathLogout   = "/auth/logout/"
	pathRefresh  = "/auth/token/refresh/"
	pathMe       = "/auth/me/"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User    core.User `json:"user"`
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
}

// TokenPair is returned by the refresh endpoint. Refresh is set only when
// the server rotates refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// NewRegisterRequest builds the request from a validated sign-up form.
func NewRegisterRequest(f core.RegisterForm) RegisterRequest {
	first, last := f.Names()
	return RegisterRequest{
		Email:           strings.TrimSpace(f.Email),
		Password:        f.Password,
		PasswordConfirm: f.ConfirmPassword,
		FirstName:       first,
		LastName:        last,
	}
}

type Auth struct {
	doer Doer
}

// Login, Register and Refresh skip the stored bearer token: SimpleJWT rejects
// an expired token even on endpoints that allow anonymous access.

func (a *Auth) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	if err := (core.LoginForm{Email: email, Password: password}).Validate(); err != nil {
		return AuthResponse{}, err
	}
	resp, err := do[AuthResponse](ctx, a.doer, api.Request{
		Method:   http.MethodPost,
		Path:     pathLogin,
		Body:     map[string]string{"email": strings.TrimSpace(email), "password": password},
		SkipAuth: true,
	})
	if err != nil {
		return AuthResponse{}, err
	}
	return resp, checkAccess(resp.Access)
}

func (a *Auth) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	resp, err := do[AuthResponse](ctx, a.doer, api.Request{
		Method:   http.MethodPost,
		Path:     pathRegister,
		Body:     req,
		SkipAuth: true,
	})
	if err != nil {
		return AuthResponse{}, err
	}
	return resp, checkAccess(resp.Access)
}

// Logout notifies the server with the given access token.
func (a *Auth) Logout(ctx context.Context, accessToken string) error {
	req := api.Request{Method: http.MethodPost, Path: pathLogout, SkipAuth: true}
	if accessToken != "" {
		req.Headers = map[string]string{"Authorization": "Bearer " + accessToken}
	}
	return a.doer.Do(ctx, req).Err()
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	pair, err := do[TokenPair](ctx, a.doer, api.Request{
		Method:   http.MethodPost,
		Path:     pathRefresh,
		Body:     map[string]string{"refresh": refreshToken},
		SkipAuth: true,
	})
	if err != nil {
		return TokenPair{}, err
	}
	return pair, checkAccess(pair.Access)
}

// Me returns the user the current access token belongs to.
func (a *Auth) Me(ctx context.Context) (core.User, error) {
	return do[core.User](ctx, a.doer, api.Request{Path: pathMe})
}

func checkAccess(access string) error {
	if access == "" {
		return &api.Error{Message: "response did not include an access token"}
	}
	return nil
}
