package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"studydocs/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilePostgres_FindIDByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProfilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM student_profiles WHERE user_id = ?").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("student-1"))

		id, err := repo.FindIDByUserID(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, "student-1", id)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM student_profiles WHERE user_id = ?").
			WithArgs("user-2").
			WillReturnError(sql.ErrNoRows)

		id, err := repo.FindIDByUserID(ctx, "user-2")
		assert.True(t, IsNoRowsError(err))
		assert.Empty(t, id)
	})
}

func TestProfilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProfilePostgres(db)
	cols := []string{"id", "user_id", "avatar_backend", "avatar_key", "updated_at"}

	t.Run("with avatar", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM student_profiles WHERE id = ?").
			WithArgs("student-1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("student-1", "user-1", "local", "avatars/a.png", time.Now()))

		p, err := repo.FindByID(context.Background(), "student-1")
		require.NoError(t, err)
		require.NotNil(t, p.Avatar)
		assert.Equal(t, model.StorageLocation{Backend: model.BackendLocal, Key: "avatars/a.png"}, *p.Avatar)
	})

	t.Run("without avatar", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM student_profiles WHERE id = ?").
			WithArgs("student-2").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("student-2", "user-2", nil, nil, time.Now()))

		p, err := repo.FindByID(context.Background(), "student-2")
		require.NoError(t, err)
		assert.Nil(t, p.Avatar)
	})

	t.Run("unknown avatar backend", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM student_profiles WHERE id = ?").
			WithArgs("student-3").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("student-3", "user-3", "ftp", "avatars/a.png", time.Now()))

		p, err := repo.FindByID(context.Background(), "student-3")
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.Nil(t, p)
	})
}

func TestProfilePostgres_SwapAvatar(t *testing.T) {
	newLoc := model.StorageLocation{Backend: model.BackendRemote, Key: "avatars/new.png"}

	t.Run("returns previous location", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT avatar_backend, avatar_key FROM student_profiles WHERE id = (.+) FOR UPDATE").
			WithArgs("student-1").
			WillReturnRows(sqlmock.NewRows([]string{"avatar_backend", "avatar_key"}).AddRow("remote", "avatars/old.png"))
		mock.ExpectExec("UPDATE student_profiles SET avatar_backend").
			WithArgs("student-1", "remote", "avatars/new.png").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		prev, err := NewProfilePostgres(db).SwapAvatar(context.Background(), "student-1", newLoc)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "avatars/old.png", prev.Key)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first avatar", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT avatar_backend, avatar_key FROM student_profiles").
			WithArgs("student-1").
			WillReturnRows(sqlmock.NewRows([]string{"avatar_backend", "avatar_key"}).AddRow(nil, nil))
		mock.ExpectExec("UPDATE student_profiles").
			WithArgs("student-1", "remote", "avatars/new.png").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		prev, err := NewProfilePostgres(db).SwapAvatar(context.Background(), "student-1", newLoc)
		require.NoError(t, err)
		assert.Nil(t, prev)
	})

	t.Run("update fails rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT avatar_backend, avatar_key FROM student_profiles").
			WithArgs("student-1").
			WillReturnRows(sqlmock.NewRows([]string{"avatar_backend", "avatar_key"}).AddRow("remote", "avatars/old.png"))
		mock.ExpectExec("UPDATE student_profiles").
			WillReturnError(errors.New("db fail"))
		mock.ExpectRollback()

		prev, err := NewProfilePostgres(db).SwapAvatar(context.Background(), "student-1", newLoc)
		assert.Error(t, err)
		assert.Nil(t, prev)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored avatar with unknown backend", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT avatar_backend, avatar_key FROM student_profiles").
			WithArgs("student-1").
			WillReturnRows(sqlmock.NewRows([]string{"avatar_backend", "avatar_key"}).AddRow("ftp", "avatars/old.png"))
		mock.ExpectRollback()

		prev, err := NewProfilePostgres(db).SwapAvatar(context.Background(), "student-1", newLoc)
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.Nil(t, prev)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new location with unknown backend", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		bad := model.StorageLocation{Backend: model.BackendKind("ftp"), Key: "avatars/new.png"}
		prev, err := NewProfilePostgres(db).SwapAvatar(context.Background(), "student-1", bad)
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.Nil(t, prev)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT avatar_backend, avatar_key FROM student_profiles").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err = NewProfilePostgres(db).SwapAvatar(context.Background(), "ghost", newLoc)
		assert.True(t, IsNoRowsError(err))
	})
}
