package web

import (
	"net/http"

	"github.com/medflow/stockroom/pkg/actor"
)

type loginData struct {
	Username string
	Error    string
}

func (wb *Web) LoginPage(w http.ResponseWriter, r *http.Request) {
	if actor.FromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	wb.render(w, r, http.StatusOK, "login.html", wb.page(w, r, "web.login.title", &loginData{}))
}

// Login checks the form credentials and starts a session
func (wb *Web) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")

	user, err := wb.access.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		data := &loginData{Username: username, Error: errorMessage(r.Context(), err)}
		wb.render(w, r, http.StatusUnauthorized, "login.html", wb.page(w, r, "web.login.title", data))
		return
	}

	if err := wb.signIn(w, r, user); err != nil {
		wb.logger.Error().Err(err).Msg("failed to save session")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (wb *Web) Logout(w http.ResponseWriter, r *http.Request) {
	if err := wb.signOut(w, r); err != nil {
		wb.logger.Warn().Err(err).Msg("failed to clear session")
	}
	wb.succeed(w, r, "flash.logged_out", "/login")
}
