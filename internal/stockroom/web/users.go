package web

import (
	"net/http"

	"github.com/medflow/stockroom/internal/stockroom/access"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/httputil"
)

type usersData struct {
	Users []domain.User
	Roles []domain.Role
	Admin string
	Error string
}

func (wb *Web) Users(w http.ResponseWriter, r *http.Request) {
	data := &usersData{
		Roles: []domain.Role{domain.RoleViewer, domain.RoleManager},
		Admin: domain.AdminUsername,
	}
	users, err := wb.access.ListUsers(r.Context())
	if err != nil {
		data.Error = errorMessage(r.Context(), err)
	}
	data.Users = users

	wb.render(w, r, http.StatusOK, "users.html", wb.page(w, r, "web.users.title", data))
}

func (wb *Web) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	active := httputil.Bool(r.PostForm, "is_active")
	req := access.CreateUserRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Role:     domain.Role(r.PostForm.Get("role")),
		IsActive: &active,
	}
	if _, err := wb.access.CreateUser(r.Context(), req); err != nil {
		wb.fail(w, r, err, "/users")
		return
	}
	wb.succeed(w, r, "flash.user_created", "/users")
}

func (wb *Web) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, "/users")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	req := access.UpdateUserRequest{
		Username: r.PostForm.Get("username"),
		Role:     domain.Role(r.PostForm.Get("role")),
		IsActive: httputil.Bool(r.PostForm, "is_active"),
		Password: r.PostForm.Get("password"),
	}
	if _, err := wb.access.UpdateUser(r.Context(), id, req); err != nil {
		wb.fail(w, r, err, "/users")
		return
	}
	wb.succeed(w, r, "flash.user_updated", "/users")
}

func (wb *Web) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		wb.fail(w, r, err, "/users")
		return
	}
	if err := wb.access.DeleteUser(r.Context(), id); err != nil {
		wb.fail(w, r, err, "/users")
		return
	}
	wb.succeed(w, r, "flash.user_deleted", "/users")
}
