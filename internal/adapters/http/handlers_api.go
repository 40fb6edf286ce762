package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"workouts/internal/adapters/http/middleware"
	"workouts/internal/application/listutil"
	"workouts/internal/application/orchestrators"
	"workouts/internal/application/projections"
	"workouts/internal/domain/account"
	"workouts/internal/domain/workout"
)

// workoutJSON is the serialized form of a workout.
type workoutJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Trainer     string `json:"trainer"`
	Date        string `json:"date"`
	Slots       int    `json:"slots"`
	IsActive    bool   `json:"is_active"`
	UserID      string `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func serializeWorkout(w workout.Workout) workoutJSON {
	return workoutJSON{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Trainer:     w.Trainer,
		Date:        formatTimestamp(w.Date),
		Slots:       w.Slots,
		IsActive:    w.IsActive,
		UserID:      w.OwnerID,
		CreatedAt:   formatTimestamp(w.CreatedAt),
		UpdatedAt:   formatTimestamp(w.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(workout.DisplayLayout)
}

type userJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func serializeUser(a account.Account) userJSON {
	return userJSON{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: formatTimestamp(a.CreatedAt),
	}
}

// validationBody builds the 422 payload: the first message, a count of the rest,
// and every message keyed by field.
func validationBody(fields []string, messages map[string]string) map[string]any {
	errs := make(map[string][]string, len(fields))
	for _, f := range fields {
		errs[f] = []string{messages[f]}
	}
	msg := ""
	if len(fields) > 0 {
		msg = messages[fields[0]]
	}
	if extra := len(fields) - 1; extra > 0 {
		noun := "error"
		if extra > 1 {
			noun = "errors"
		}
		msg = fmt.Sprintf("%s (and %d more %s)", msg, extra, noun)
	}
	return map[string]any{"message": msg, "errors": errs}
}

// writeWorkoutError maps orchestrator errors onto API statuses.
func writeWorkoutError(w http.ResponseWriter, err error) {
	var verrs workout.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(verrs.Fields(), verrs))
	case errors.Is(err, orchestrators.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
	case errors.Is(err, workout.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "This action is unauthorized.")
	case errors.Is(err, workout.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Workout not found.")
	default:
		internalErrorJSON(w, err)
	}
}

// handleAPIListWorkouts handles GET /api/workouts
func handleAPIListWorkouts(w http.ResponseWriter, r *http.Request) {
	query := projections.GetWorkoutListQuery{OwnerID: requester(r).ID}
	if raw, ok := r.URL.Query()["is_active"]; ok && len(raw) > 0 {
		active := listutil.ParseBoolQuery(raw[0])
		query.Active = &active
	}

	result, err := projections.QueryGetWorkoutList(r.Context(), query, projections.GetWorkoutListDeps{
		WorkoutStore: stores.WorkoutStore,
	})
	if err != nil {
		internalErrorJSON(w, err)
		return
	}

	out := make([]workoutJSON, 0, len(result.Workouts))
	for _, wo := range result.Workouts {
		out = append(out, serializeWorkout(wo))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAPICreateWorkout handles POST /api/workouts
func handleAPICreateWorkout(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	created, err := orchestrators.ExecuteCreateWorkout(r.Context(), orchestrators.CreateWorkoutInput{
		Requester: requester(r),
		Fields:    fields,
	}, orchestrators.CreateWorkoutDeps{
		WorkoutStore: stores.WorkoutStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeWorkoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Workout created successfully.",
		"data":    serializeWorkout(created),
	})
}

// handleAPIShowWorkout handles GET /api/workouts/{id}
func handleAPIShowWorkout(w http.ResponseWriter, r *http.Request) {
	found, err := orchestrators.ExecuteShowWorkout(r.Context(), orchestrators.ShowWorkoutInput{
		Requester: requester(r),
		WorkoutID: r.PathValue("id"),
	}, orchestrators.ShowWorkoutDeps{WorkoutStore: stores.WorkoutStore})
	if err != nil {
		writeWorkoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serializeWorkout(found))
}

// handleAPIUpdateWorkout handles PUT and PATCH /api/workouts/{id}
func handleAPIUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	updated, err := orchestrators.ExecuteUpdateWorkout(r.Context(), orchestrators.UpdateWorkoutInput{
		Requester: requester(r),
		WorkoutID: r.PathValue("id"),
		Fields:    fields,
	}, orchestrators.UpdateWorkoutDeps{
		WorkoutStore: stores.WorkoutStore,
		Now:          timeNow,
	})
	if err != nil {
		writeWorkoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Workout updated successfully.",
		"data":    serializeWorkout(updated),
	})
}

// handleAPIDeleteWorkout handles DELETE /api/workouts/{id}
func handleAPIDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteWorkout(r.Context(), orchestrators.DeleteWorkoutInput{
		Requester: requester(r),
		WorkoutID: r.PathValue("id"),
	}, orchestrators.DeleteWorkoutDeps{
		WorkoutStore: stores.WorkoutStore,
		Now:          timeNow,
	})
	if err != nil {
		writeWorkoutError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Workout deleted successfully.")
}

// handleAPINotFound answers unknown /api/ routes in JSON.
func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not Found.")
}

// --- Auth endpoints ---

// handleAPIRegister handles POST /api/register
func handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		Sender:       emailSender,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	var ferr *orchestrators.FieldError
	if errors.As(err, &ferr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(
			[]string{ferr.Field}, map[string]string{ferr.Field: ferr.Message}))
		return
	}
	if err != nil {
		internalErrorJSON(w, err)
		return
	}

	issued, err := issueToken(r, acct)
	if err != nil {
		internalErrorJSON(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully.",
		"user":    serializeUser(acct),
		"token":   issued.Token,
	})
}

// handleAPILogin handles POST /api/login
func handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	acct, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "These credentials do not match our records.")
		return
	case errors.Is(err, orchestrators.ErrAccountLocked):
		writeMessage(w, http.StatusUnauthorized, "Too many login attempts. Please try again later.")
		return
	case err != nil:
		internalErrorJSON(w, err)
		return
	}

	issued, err := issueToken(r, acct)
	if err != nil {
		internalErrorJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       serializeUser(acct),
		"token":      issued.Token,
		"expires_at": formatTimestamp(issued.ExpiresAt),
	})
}

// handleAPILogout handles POST /api/logout
func handleAPILogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	err := orchestrators.ExecuteRevokeToken(r.Context(), sess.TokenID, orchestrators.RevokeTokenDeps{
		TokenStore: stores.TokenStore,
		Now:        timeNow,
	})
	if err != nil {
		if errors.Is(err, orchestrators.ErrUnauthenticated) {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		internalErrorJSON(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully.")
}

// handleAPIUser handles GET /api/user
func handleAPIUser(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	acct, err := stores.AccountStore.GetByID(r.Context(), sess.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		internalErrorJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serializeUser(acct))
}

func issueToken(r *http.Request, acct account.Account) (orchestrators.IssuedToken, error) {
	return orchestrators.ExecuteIssueToken(r.Context(), acct, orchestrators.IssueTokenDeps{
		Issuer:     tokenIssuer,
		TokenStore: stores.TokenStore,
		Now:        timeNow,
	})
}
