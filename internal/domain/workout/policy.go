package workout

// Requester is the authenticated identity behind a request.
// A zero Requester is anonymous.
type Requester struct {
	ID   string
	Role string
}

// IsAuthenticated reports whether the requester carries an identity.
func (r Requester) IsAuthenticated() bool {
	return r.ID != ""
}

// CanAccess reports whether the requester may view, update or delete the workout.
// Only the owner may.
func CanAccess(r Requester, w Workout) bool {
	return r.IsAuthenticated() && w.OwnerID == r.ID
}
