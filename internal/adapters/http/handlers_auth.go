package web

import (
	"errors"
	"net/http"

	"workouts/internal/adapters/http/middleware"
	"workouts/internal/application/orchestrators"
	"workouts/internal/domain/account"
)

// handleHome handles GET /
func handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLoginPage handles GET /login
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to dashboard
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", map[string]any{"Email": "", "Error": ""})
}

// handleLogin handles POST /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	acct, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		Now:          timeNow,
	})
	if err != nil {
		msg := "These credentials do not match our records."
		switch {
		case errors.Is(err, orchestrators.ErrAccountLocked):
			msg = "Too many login attempts. Please try again later."
		case !errors.Is(err, orchestrators.ErrInvalidCredentials):
			internalError(w, err)
			return
		}
		renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Email": r.FormValue("email"),
			"Error": msg,
		})
		return
	}

	startSession(w, r, acct)
}

// handleRegisterPage handles GET /register
func handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "register.html", map[string]any{
		"Name":   "",
		"Email":  "",
		"Errors": map[string]string{},
	})
}

// handleRegister handles POST /register
func handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	rerender := func(errs map[string]string) {
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "register.html", map[string]any{
			"Name":   r.FormValue("name"),
			"Email":  r.FormValue("email"),
			"Errors": errs,
		})
	}

	if r.FormValue("password") != r.FormValue("password_confirmation") {
		rerender(map[string]string{"password": "The password field confirmation does not match."})
		return
	}

	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		Sender:       emailSender,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	var ferr *orchestrators.FieldError
	if errors.As(err, &ferr) {
		rerender(map[string]string{ferr.Field: ferr.Message})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	startSession(w, r, acct)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok && sess.Token != "" {
		sessions.Delete(sess.Token)
		views.Drop(sess.Token)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func startSession(w http.ResponseWriter, r *http.Request, acct account.Account) {
	token, err := sessions.Create(acct)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
