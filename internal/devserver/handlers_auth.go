package devserver

import (
	"errors"
	"net/http"
	"strings"

	"finstudent/internal/core"
	"finstudent/internal/log"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authed resolves the bearer token to a user before calling h.
func (s *Server) authed(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			ErrorResponse(http.StatusUnauthorized, "Authentication credentials were not provided.").Write(w)
			return
		}
		user, err := s.store.UserForAccess(token)
		if err != nil {
			tokenNotValid("Given token not valid for any token type").Write(w)
			return
		}
		ctx := log.WithContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, user.ID))
		h(w, r.WithContext(ctx), user)
	})
}

type authResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    core.User `json:"user"`
}

func (s *Server) issue(user core.User) authResponse {
	access, refresh := s.store.IssueTokens(user.ID)
	return authResponse{Access: access, Refresh: refresh, User: user}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	errs := map[string][]string{}
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Email == "":
		errs["email"] = []string{"This field is required."}
	case !validEmail(req.Email):
		errs["email"] = []string{"Enter a valid email address."}
	}
	for field, v := range map[string]string{"password": req.Password, "password_confirm": req.PasswordConfirm} {
		switch {
		case v == "":
			errs[field] = []string{"This field is required."}
		case len(v) < core.MinPasswordLength:
			errs[field] = []string{"Ensure this field has at least 8 characters."}
		case len(v) > MaxPasswordBytes:
			errs[field] = []string{"Ensure this field has no more than 72 characters."}
		}
	}
	if len(errs) == 0 && req.Password != req.PasswordConfirm {
		errs["password"] = []string{"Passwords do not match."}
	}
	if len(errs) > 0 {
		FieldErrors(errs).Write(w)
		return
	}

	user, err := s.store.Register(req.Email, req.Password, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	if errors.Is(err, ErrEmailTaken) {
		fieldError("email", "Email already registered.").Write(w)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).Error("Failed to register user", log.FieldError, err)
		ErrorResponse(http.StatusInternalServerError, "A server error occurred.").Write(w)
		return
	}

	log.FromContext(r.Context()).Info("User registered", log.FieldUserID, user.ID)
	NewResponse().Status(http.StatusCreated).JSON(s.issue(user)).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	errs := map[string][]string{}
	if strings.TrimSpace(req.Email) == "" {
		errs["email"] = []string{"This field is required."}
	}
	if req.Password == "" {
		errs["password"] = []string{"This field is required."}
	}
	if len(errs) > 0 {
		FieldErrors(errs).Write(w)
		return
	}

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		log.FromContext(r.Context()).Warn("Login rejected", log.FieldOperation, log.OpLogin)
		fieldError("non_field_errors", "Invalid email or password.").Write(w)
		return
	}
	NewResponse().JSON(s.issue(user)).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	if req.Refresh == "" {
		fieldError("refresh", "This field is required.").Write(w)
		return
	}

	access, err := s.store.Refresh(req.Refresh)
	if err != nil {
		tokenNotValid("Token is invalid or expired").Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"access": access}).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user core.User) {
	s.store.Revoke(bearerToken(r))
	NewResponse().JSON(map[string]string{
		"message": "Successfully logged out. Please delete your tokens.",
	}).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user core.User) {
	NewResponse().JSON(user).Write(w)
}
