package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trackly/trackly-api/internal/handler/marshaller"
	"github.com/trackly/trackly-api/internal/service/dto"
)

type UserHandler struct {
	userService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	skip, limit, err := page(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	users, err := h.userService.List(r.Context(), me, skip, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, list(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathUUID(r, "user_id", "User")
	if err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.userService.Get(r.Context(), me, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, u)
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.userService.GetByEmail(r.Context(), me, chi.URLParam(r, "email"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathUUID(r, "user_id", "User")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req dto.UserUpdate
	if err := marshaller.Decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.userService.Update(r.Context(), me, id, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathUUID(r, "user_id", "User")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), me, id); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, message{Message: "User deleted successfully"})
}

func (h *UserHandler) Count(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	n, err := h.userService.Count(r.Context(), me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, map[string]int{"total_users": n})
}
