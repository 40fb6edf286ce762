package web

import (
	"net/http"
	"strings"

	"workouts/internal/adapters/http/middleware"
	"workouts/internal/application/listutil"
	"workouts/internal/application/viewstate"
)

// registerSurface mounts the interactive routes for one surface under /<name>.
// Every POST mutates the session's view state and redirects back to the page.
func registerSurface(mux *http.ServeMux, ui *viewstate.Controller, protect func(http.HandlerFunc) http.Handler) {
	base := "/" + ui.Surface().Name

	mux.Handle("GET "+base, protect(func(w http.ResponseWriter, r *http.Request) {
		handleSurfacePage(w, r, ui)
	}))

	transition := func(action string, fn func(r *http.Request, s *viewstate.State) error) {
		mux.Handle("POST "+base+"/"+action, protect(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form submission", http.StatusBadRequest)
				return
			}
			if err := withState(r, ui, func(s *viewstate.State) error { return fn(r, s) }); err != nil {
				internalError(w, err)
				return
			}
			http.Redirect(w, r, base, http.StatusSeeOther)
		}))
	}

	transition("search", func(r *http.Request, s *viewstate.State) error {
		search := strings.TrimSpace(r.FormValue("search"))
		trainer := strings.TrimSpace(r.FormValue("trainer"))
		if search != s.Search {
			ui.SetSearch(s, search)
		}
		if trainer != s.Trainer {
			ui.SetTrainerFilter(s, trainer)
		}
		return nil
	})
	transition("page", func(r *http.Request, s *viewstate.State) error {
		ui.SetPage(s, listutil.ParsePage(r.FormValue("page")))
		return nil
	})
	transition("create", func(r *http.Request, s *viewstate.State) error {
		ui.OpenCreate(s)
		return nil
	})
	transition("edit/{id}", func(r *http.Request, s *viewstate.State) error {
		return ui.OpenEdit(r.Context(), s, requester(r), r.PathValue("id"))
	})
	transition("cancel", func(r *http.Request, s *viewstate.State) error {
		ui.Cancel(s)
		return nil
	})
	transition("save", func(r *http.Request, s *viewstate.State) error {
		return ui.Save(r.Context(), s, requester(r), formFromRequest(r))
	})
	transition("delete/{id}", func(r *http.Request, s *viewstate.State) error {
		return ui.Delete(r.Context(), s, requester(r), r.PathValue("id"))
	})
}

// handleSurfacePage handles GET /dashboard and GET /manager
func handleSurfacePage(w http.ResponseWriter, r *http.Request, ui *viewstate.Controller) {
	var view viewstate.View
	err := withState(r, ui, func(s *viewstate.State) error {
		var err error
		view, err = ui.View(r.Context(), s, requester(r))
		return err
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "workouts.html", view)
}

// withState runs fn against the caller's state for ui's surface.
func withState(r *http.Request, ui *viewstate.Controller, fn func(*viewstate.State) error) error {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return views.With(sess.Token, ui.Surface().Name, fn)
}

// formFromRequest reads the modal fields. An unchecked checkbox is absent from the form.
func formFromRequest(r *http.Request) viewstate.Form {
	return viewstate.Form{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Trainer:     r.FormValue("trainer"),
		Date:        r.FormValue("date"),
		Slots:       r.FormValue("slots"),
		IsActive:    r.FormValue("is_active") != "",
	}
}
