package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"workouts/internal/adapters/storage/workout"
	"workouts/internal/application/listutil"
	"workouts/internal/application/orchestrators"
	"workouts/internal/application/projections"
	"workouts/internal/application/viewstate"
	domainWorkout "workouts/internal/domain/workout"
)

// adminPerPage is the admin table page size.
const adminPerPage = 20

// adminActionEdit tags the notice shown after an admin edit.
const adminActionEdit = "edit"

// adminFilterKeys are the query keys preserved across admin actions.
var adminFilterKeys = []string{"owner", "active", "trashed"}

// handleAdminWorkouts handles GET /admin/workouts
func handleAdminWorkouts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lp := listutil.ParseListParams(q, adminPerPage, adminFilterKeys)
	trashed := q.Get("trashed")
	if trashed == "" {
		trashed = "without"
	}

	result, err := projections.QueryGetAdminWorkouts(r.Context(), projections.GetAdminWorkoutsQuery{
		OwnerID:    lp.Filters["owner"],
		ActiveOnly: listutil.ParseBoolQuery(lp.Filters["active"]),
		Trashed:    workout.ParseTrashed(trashed),
		Page:       lp.Page,
		PerPage:    lp.PerPage,
	}, projections.GetAdminWorkoutsDeps{
		WorkoutStore: stores.WorkoutStore,
		AccountStore: stores.AccountStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	filters := adminFilterQuery(q).Encode()
	renderTemplate(w, r, "admin.html", map[string]any{
		"Rows":       result.Rows,
		"Owners":     result.Owners,
		"Page":       result.Page,
		"Owner":      lp.Filters["owner"],
		"ActiveOnly": listutil.ParseBoolQuery(lp.Filters["active"]),
		"Trashed":    trashed,
		"Filters":    filters,
		"PageQuery":  template.URL(filters),
		"Notice":     adminNotice(q),
	})
}

// handleAdminWorkoutAction handles POST /admin/workouts/action
func handleAdminWorkoutAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	action := orchestrators.AdminWorkoutAction(r.FormValue("action"))
	result, err := orchestrators.ExecuteAdminWorkout(r.Context(), orchestrators.AdminWorkoutInput{
		Requester:  requester(r),
		Action:     action,
		WorkoutIDs: r.Form["id"],
	}, orchestrators.AdminWorkoutDeps{
		WorkoutStore: stores.WorkoutStore,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrUnknownAdminAction):
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	case errors.Is(err, domainWorkout.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	back, _ := url.ParseQuery(r.FormValue("filters"))
	back = adminFilterQuery(back)
	back.Set("action", string(action))
	back.Set("applied", strconv.Itoa(result.Applied))
	http.Redirect(w, r, "/admin/workouts?"+back.Encode(), http.StatusSeeOther)
}

// handleAdminEditWorkoutPage handles GET /admin/workouts/{id}/edit
func handleAdminEditWorkoutPage(w http.ResponseWriter, r *http.Request) {
	existing, err := orchestrators.ExecuteAdminGetWorkout(r.Context(), orchestrators.AdminEditWorkoutInput{
		Requester: requester(r),
		WorkoutID: r.PathValue("id"),
	}, orchestrators.ShowWorkoutDeps{WorkoutStore: stores.WorkoutStore})
	if err != nil {
		adminEditError(w, err)
		return
	}
	renderAdminEdit(w, r, http.StatusOK, existing.ID, viewstate.FormFromWorkout(existing), nil, r.URL.Query().Get("filters"))
}

// handleAdminEditWorkout handles POST /admin/workouts/{id}/edit
func handleAdminEditWorkout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	form := formFromRequest(r)
	_, err := orchestrators.ExecuteAdminUpdateWorkout(r.Context(), orchestrators.AdminEditWorkoutInput{
		Requester: requester(r),
		WorkoutID: id,
		Fields:    form.Input(),
	}, orchestrators.UpdateWorkoutDeps{
		WorkoutStore: stores.WorkoutStore,
		Now:          timeNow,
	})
	var verrs domainWorkout.ValidationErrors
	if errors.As(err, &verrs) {
		renderAdminEdit(w, r, http.StatusUnprocessableEntity, id, form, verrs, r.FormValue("filters"))
		return
	}
	if err != nil {
		adminEditError(w, err)
		return
	}

	back, _ := url.ParseQuery(r.FormValue("filters"))
	back = adminFilterQuery(back)
	back.Set("action", adminActionEdit)
	back.Set("applied", "1")
	http.Redirect(w, r, "/admin/workouts?"+back.Encode(), http.StatusSeeOther)
}

func renderAdminEdit(w http.ResponseWriter, r *http.Request, status int, id string, form viewstate.Form, errs domainWorkout.ValidationErrors, filters string) {
	if errs == nil {
		errs = domainWorkout.ValidationErrors{}
	}
	q, _ := url.ParseQuery(filters)
	filters = adminFilterQuery(q).Encode()
	renderTemplateStatus(w, r, status, "admin_edit.html", map[string]any{
		"ID":        id,
		"Form":      form,
		"Errors":    errs,
		"Filters":   filters,
		"BackQuery": template.URL(filters),
	})
}

func adminEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainWorkout.ErrNotFound):
		http.Error(w, "Workout not found", http.StatusNotFound)
	case errors.Is(err, domainWorkout.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		internalError(w, err)
	}
}

// adminFilterQuery keeps only the filter keys of q.
func adminFilterQuery(q url.Values) url.Values {
	out := url.Values{}
	for _, k := range adminFilterKeys {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// adminNotice describes the action that just completed, if any.
func adminNotice(q url.Values) string {
	verb := map[string]string{
		string(orchestrators.AdminActionDelete):      "deleted",
		string(orchestrators.AdminActionRestore):     "restored",
		string(orchestrators.AdminActionForceDelete): "permanently deleted",
		adminActionEdit:                             "updated",
	}[q.Get("action")]
	if verb == "" {
		return ""
	}
	n, _ := strconv.Atoi(q.Get("applied"))
	noun := "workouts"
	if n == 1 {
		noun = "workout"
	}
	return fmt.Sprintf("%d %s %s.", n, noun, verb)
}
