package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"studydocs/internal/model"
	"studydocs/internal/repository"
)

// ProfilePostgres is a PostgreSQL implementation of repository.ProfileRepository.
type ProfilePostgres struct {
	db *sql.DB
}

// NewProfilePostgres creates a new ProfilePostgres repository.
func NewProfilePostgres(db *sql.DB) *ProfilePostgres {
	return &ProfilePostgres{db: db}
}

var _ repository.ProfileRepository = (*ProfilePostgres)(nil)

// FindIDByUserID resolves the student profile linked to a principal.
func (r *ProfilePostgres) FindIDByUserID(ctx context.Context, userID string) (string, error) {
	const q = `SELECT id FROM student_profiles WHERE user_id = $1`
	var id string
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// FindByID fetches a profile with its avatar reference.
func (r *ProfilePostgres) FindByID(ctx context.Context, id string) (*model.StudentProfile, error) {
	const q = `
		SELECT id, user_id, avatar_backend, avatar_key, updated_at
		FROM student_profiles
		WHERE id = $1
	`
	var (
		p       model.StudentProfile
		backend sql.NullString
		key     sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.UserID, &backend, &key, &p.UpdatedAt); err != nil {
		return nil, err
	}
	avatar, err := location(backend, key)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	p.Avatar = avatar
	return &p, nil
}

// SwapAvatar locks the profile row, records the new avatar location and returns the previous one.
func (r *ProfilePostgres) SwapAvatar(ctx context.Context, id string, loc model.StorageLocation) (*model.StorageLocation, error) {
	if !loc.Backend.Valid() {
		return nil, fmt.Errorf("swap avatar: %w %q", ErrUnknownBackend, loc.Backend)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const qSelect = `SELECT avatar_backend, avatar_key FROM student_profiles WHERE id = $1 FOR UPDATE`
	var backend, key sql.NullString
	if err := tx.QueryRowContext(ctx, qSelect, id).Scan(&backend, &key); err != nil {
		return nil, err
	}
	prev, err := location(backend, key)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}

	const qUpdate = `UPDATE student_profiles SET avatar_backend = $2, avatar_key = $3, updated_at = now() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, qUpdate, id, string(loc.Backend), loc.Key); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return prev, nil
}

// location rebuilds an avatar reference; a NULL pair means no avatar is set.
func location(backend, key sql.NullString) (*model.StorageLocation, error) {
	if !backend.Valid || !key.Valid || key.String == "" {
		return nil, nil
	}
	loc := &model.StorageLocation{Backend: model.BackendKind(backend.String), Key: key.String}
	if !loc.Backend.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend.String)
	}
	return loc, nil
}
