package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/server/auth"
	"github.com/dmitrijs2005/agrocms/internal/server/metrics"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, sess, err := a.auth.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		metrics.ObserveAuth("register", "failure")
		if errors.Is(err, common.ErrorConflict) {
			writeMessage(w, http.StatusBadRequest, "Username already taken")
			return
		}
		writeError(w, r, a.log, err, "Registration failed")
		return
	}

	metrics.ObserveAuth("register", "success")
	a.startSession(w, r, user, sess, http.StatusCreated)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, sess, err := a.auth.Login(r.Context(), in.Username, in.Password, sessionIDFromContext(r.Context()))
	if err != nil {
		metrics.ObserveAuth("login", "failure")
		writeError(w, r, a.log, err, "Login failed")
		return
	}

	metrics.ObserveAuth("login", "success")
	a.startSession(w, r, user, sess, http.StatusOK)
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request, user *models.User, sess *models.Session, status int) {
	if err := a.issueCookie(w, sess); err != nil {
		writeError(w, r, a.log, err, "Failed to start session")
		return
	}
	writeJSON(w, status, user)
}

// handleLogout always succeeds from the client's point of view; a storage
// failure is logged and the cookie is cleared regardless.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context(), sessionIDFromContext(r.Context())); err != nil {
		a.log.Error(r.Context(), "logout failed", "error", err)
	}
	metrics.ObserveAuth("logout", "success")
	auth.ClearSessionCookie(w, a.cookie)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
