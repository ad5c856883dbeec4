package web

import (
	"context"
	"errors"
	"net/http"

	goEstate "github.com/MrEthical07/goEstate"
)

var menuActions = []string{
	"/add_estate",
	"/add_advert",
	"/change_estate_status",
	"/change_advert_status",
	"/withdraw",
	"/get_balance",
	"/get_estates",
	"/get_adverts",
	"/buy_estate",
	"/logout",
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if c, err := r.Cookie(h.engine.SessionCookieName()); err == nil && c.Value != "" {
		_, err := h.engine.Authenticate(r.Context(), c.Value)
		authenticated = err == nil
	}
	success(w, r, "estate registry", map[string]bool{"authenticated": authenticated})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	res, err := h.engine.Login(r.Context(), r.PostForm.Get("address"), r.PostForm.Get("password"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.supersede(r, res.Credential)

	http.SetCookie(w, h.engine.SessionCookie(res))
	redirectNotice(w, r, "/menu", "Login successful", map[string]string{
		"address": res.Credential.Address.Hex(),
	})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	res, err := h.engine.Register(r.Context(), r.PostForm.Get("password"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.supersede(r, res.Credential)

	addr := res.Credential.Address.Hex()
	http.SetCookie(w, h.engine.SessionCookie(res))
	redirectNotice(w, r, "/menu", "Registration successful! Your address: "+addr, map[string]string{
		"address": addr,
	})
}

func (h *handler) menu(w http.ResponseWriter, r *http.Request) {
	cred := credential(r)
	success(w, r, "menu", map[string]any{
		"address": cred.Address.Hex(),
		"actions": menuActions,
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	cred := credential(r)
	err := h.engine.Logout(r.Context(), cred)
	http.SetCookie(w, h.engine.ClearSessionCookie())

	switch {
	case err == nil:
		redirectNotice(w, r, "/", "You have logged out", nil)
	case errors.Is(err, goEstate.ErrLockFailed):
		h.logger.ErrorContext(r.Context(), "lock account on logout", "address", cred.Address.Hex(), "error", err)
		writeNotice(w, r, http.StatusInternalServerError, CategoryDanger, "logged out, but the account could not be locked", nil)
	default:
		h.fail(w, r, err)
	}
}

// supersede ends the session the browser presented before it logged in again. Each
// browser holds one session at a time.
func (h *handler) supersede(r *http.Request, next goEstate.Credential) {
	c, err := r.Cookie(h.engine.SessionCookieName())
	if err != nil || c.Value == "" {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	previous, err := h.engine.Authenticate(ctx, c.Value)
	if err != nil {
		return
	}
	if err := h.engine.Supersede(ctx, *previous, next); err != nil {
		h.logger.ErrorContext(ctx, "end previous session",
			"address", previous.Address.Hex(),
			"request_id", goEstate.RequestIDFromContext(ctx),
			"error", err,
		)
	}
}

func credential(r *http.Request) goEstate.Credential {
	cred, ok := goEstate.CredentialFromContext(r.Context())
	if !ok || cred == nil {
		return goEstate.Credential{}
	}
	return *cred
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		writeNotice(w, r, http.StatusBadRequest, CategoryDanger, "malformed form", nil)
		return false
	}
	return true
}
