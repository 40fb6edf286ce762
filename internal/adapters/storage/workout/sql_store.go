package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"workouts/internal/adapters/storage"
	domain "workouts/internal/domain/workout"
)

const selectColumns = "SELECT id, title, description, trainer, date, slots, is_active, user_id, created_at, updated_at, deleted_at FROM workout"

// SQLStore implements Store over database/sql. Queries use ? placeholders;
// pass a *storage.TimedDB to run them against PostgreSQL.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new workout store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts a new Workout.
// PRE: value has been validated and carries an ID and OwnerID
// POST: row inserted with timestamps truncated to the second
func (s *SQLStore) Create(ctx context.Context, value domain.Workout) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout (id, title, description, trainer, date, slots, is_active, user_id, created_at, updated_at, deleted_at, title_search, trainer_search)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		value.ID,
		value.Title,
		value.Description,
		value.Trainer,
		storage.FormatTime(value.Date),
		value.Slots,
		storage.BoolToInt(value.IsActive),
		value.OwnerID,
		storage.FormatTime(value.CreatedAt),
		storage.FormatTime(value.UpdatedAt),
		storage.FormatNullTime(value.DeletedAt),
		foldSearch(value.Title),
		foldSearch(value.Trainer),
	)
	if err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}

// GetByID retrieves a Workout by its ID.
// PRE: id is non-empty
// POST: Returns the entity, or an error wrapping domain.ErrNotFound when absent
// (or soft-deleted and includeTrashed is false)
func (s *SQLStore) GetByID(ctx context.Context, id string, includeTrashed bool) (domain.Workout, error) {
	query := selectColumns + " WHERE id = ?"
	if !includeTrashed {
		query += " AND deleted_at IS NULL"
	}
	entity, err := scanWorkout(s.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Workout{}, fmt.Errorf("workout %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Workout{}, fmt.Errorf("get workout: %w", err)
	}
	return entity, nil
}

// List retrieves Workouts based on the filter, ordered by date then creation.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Workout, error) {
	where, args := buildWhere(filter)
	query := selectColumns + where + " ORDER BY date ASC, created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	results := []domain.Workout{}
	for rows.Next() {
		entity, err := scanWorkout(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of workouts matching the filter. Limit and Offset are ignored.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workout"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count workouts: %w", err)
	}
	return count, nil
}

// Update writes only the supplied attributes and stamps updated_at.
// PRE: attrs has been validated
// POST: Returns the updated entity; domain.ErrNotFound when missing or soft-deleted
// INVARIANT: user_id is never written
func (s *SQLStore) Update(ctx context.Context, id string, attrs domain.Attributes, now time.Time) (domain.Workout, error) {
	var sets []string
	var args []any
	if attrs.Title != nil {
		sets = append(sets, "title = ?", "title_search = ?")
		args = append(args, *attrs.Title, foldSearch(*attrs.Title))
	}
	if attrs.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *attrs.Description)
	}
	if attrs.Trainer != nil {
		sets = append(sets, "trainer = ?", "trainer_search = ?")
		args = append(args, *attrs.Trainer, foldSearch(*attrs.Trainer))
	}
	if attrs.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, storage.FormatTime(*attrs.Date))
	}
	if attrs.Slots != nil {
		sets = append(sets, "slots = ?")
		args = append(args, *attrs.Slots)
	}
	if attrs.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, storage.BoolToInt(*attrs.IsActive))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, storage.FormatTime(now), id)

	query := "UPDATE workout SET " + strings.Join(sets, ", ") + " WHERE id = ? AND deleted_at IS NULL"
	if err := s.execOne(ctx, id, query, args...); err != nil {
		return domain.Workout{}, err
	}
	return s.GetByID(ctx, id, false)
}

// SoftDelete marks a workout deleted.
// POST: deleted_at and updated_at set to now; domain.ErrNotFound if missing or already deleted
func (s *SQLStore) SoftDelete(ctx context.Context, id string, now time.Time) error {
	ts := storage.FormatTime(now)
	return s.execOne(ctx, id,
		"UPDATE workout SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		ts, ts, id)
}

// Restore clears deleted_at on a soft-deleted workout.
// POST: deleted_at NULL, updated_at set to now; domain.ErrNotFound if missing or not deleted
func (s *SQLStore) Restore(ctx context.Context, id string, now time.Time) error {
	return s.execOne(ctx, id,
		"UPDATE workout SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL",
		storage.FormatTime(now), id)
}

// ForceDelete removes the row permanently.
// POST: row removed; domain.ErrNotFound if it did not exist
func (s *SQLStore) ForceDelete(ctx context.Context, id string) error {
	return s.execOne(ctx, id, "DELETE FROM workout WHERE id = ?", id)
}

// execOne runs a single-row statement and maps "no rows touched" to ErrNotFound.
func (s *SQLStore) execOne(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write workout: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("workout %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func buildWhere(filter ListFilter) (string, []any) {
	var conds []string
	var args []any

	switch filter.Trashed {
	case TrashedOnly:
		conds = append(conds, "deleted_at IS NOT NULL")
	case TrashedInclude:
	default:
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.OwnerID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Active != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, storage.BoolToInt(*filter.Active))
	}
	if t := strings.TrimSpace(filter.Title); t != "" {
		conds = append(conds, `title_search LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(t))
	}
	if t := strings.TrimSpace(filter.Trainer); t != "" {
		conds = append(conds, `trainer_search LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(t))
	}
	if !filter.DateAfter.IsZero() {
		conds = append(conds, "date > ?")
		args = append(args, storage.FormatTime(filter.DateAfter))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// foldSearch is the case folding applied to the *_search columns and to search terms.
// SQLite's LOWER only folds ASCII, so folding happens here for both dialects.
func foldSearch(s string) string {
	return strings.ToLower(s)
}

// likePattern builds a case-insensitive substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(foldSearch(s)) + "%"
}

// scanWorkout extracts a Workout from a row scanner function.
func scanWorkout(scan func(dest ...any) error) (domain.Workout, error) {
	var entity domain.Workout
	var date, createdAt, updatedAt string
	var deletedAt sql.NullString
	var active int
	err := scan(
		&entity.ID,
		&entity.Title,
		&entity.Description,
		&entity.Trainer,
		&date,
		&entity.Slots,
		&active,
		&entity.OwnerID,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return domain.Workout{}, err
	}
	entity.IsActive = active != 0
	if entity.Date, err = storage.ParseTime(date); err != nil {
		return domain.Workout{}, err
	}
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Workout{}, err
	}
	if entity.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Workout{}, err
	}
	if entity.DeletedAt, err = storage.ParseNullTime(deletedAt); err != nil {
		return domain.Workout{}, err
	}
	return entity, nil
}
