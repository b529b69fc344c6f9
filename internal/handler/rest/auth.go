package rest

import (
	"net/http"

	"github.com/trackly/trackly-api/internal/handler/marshaller"
	"github.com/trackly/trackly-api/internal/service/dto"
)

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := marshaller.Decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	marshaller.JSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := marshaller.Decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, resp)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := marshaller.Decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.authService.Me(r.Context(), me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, u)
}

// Logout is stateless: tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	ok(w, message{Message: "Successfully logged out. Please discard your tokens."})
}
