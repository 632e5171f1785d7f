package assets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleAsset() *models.Asset {
	return &models.Asset{
		ContentHash:  "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		StorageKey:   "f2a9d6a1-3c55-4a35-9c27-000000000001.txt",
		OriginalName: "a.txt",
		SizeBytes:    5,
		MimeType:     "text/plain",
		UploadedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OwnerEmail:   "alice@example.com",
		State:        models.StateActive,
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()

	q := `(?s)^\s*INSERT\s+INTO\s+assets\b.*ON\s+CONFLICT\s*\(content_hash\)\s+DO\s+NOTHING\s*$`
	mock.ExpectExec(q).
		WithArgs(a.ContentHash, a.StorageKey, a.OriginalName, a.SizeBytes,
			a.MimeType, a.UploadedAt, a.OwnerEmail, a.State).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Insert(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsert_DuplicateLiveHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+assets\b`).
		WithArgs(a.ContentHash, a.StorageKey, a.OriginalName, a.SizeBytes,
			a.MimeType, a.UploadedAt, a.OwnerEmail, a.State).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Insert(context.Background(), a)
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want ErrorConflict, got %v", err)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\s+.*\s+FROM\s+assets\s+WHERE\s+content_hash\s*=\s*\$1\s*$`).
		WithArgs("deadbeef").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "deadbeef")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestFind_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	rows := sqlmock.NewRows([]string{
		"content_hash", "storage_key", "original_name", "size_bytes",
		"mime_type", "uploaded_at", "owner_email", "state",
	}).AddRow(a.ContentHash, a.StorageKey, a.OriginalName, a.SizeBytes,
		a.MimeType, a.UploadedAt, a.OwnerEmail, string(a.State))

	mock.ExpectQuery(`(?s)^\s*SELECT\s+.*\s+FROM\s+assets\s+WHERE\s+content_hash\s*=\s*\$1\s*$`).
		WithArgs(a.ContentHash).
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), a.ContentHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StorageKey != a.StorageKey || got.State != models.StateActive {
		t.Fatalf("unexpected asset: %+v", got)
	}
}

func TestUpdateState_InvalidTransition(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+state\s+FROM\s+assets\s+WHERE\s+content_hash\s*=\s*\$1$`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(string(models.StateActive)))

	err := repo.UpdateState(context.Background(), "abc", models.StateRetired)
	if !errors.Is(err, common.ErrorInvalidTransition) {
		t.Fatalf("want ErrorInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateState_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+state\s+FROM\s+assets\b`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(string(models.StateActive)))
	mock.ExpectExec(`(?s)^UPDATE\s+assets\s+SET\s+state\s*=\s*\$1\s+WHERE\s+content_hash\s*=\s*\$2$`).
		WithArgs(models.StateDownloaded, "abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateState(context.Background(), "abc", models.StateDownloaded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateState_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+state\s+FROM\s+assets\b`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := repo.UpdateState(context.Background(), "missing", models.StateDownloaded)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestRemove_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+assets\s+WHERE\s+content_hash\s*=\s*\$1$`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSearch_PassesFiltersAndScans(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	rows := sqlmock.NewRows([]string{
		"content_hash", "storage_key", "original_name", "size_bytes",
		"mime_type", "uploaded_at", "owner_email", "state",
	}).AddRow(a.ContentHash, a.StorageKey, a.OriginalName, a.SizeBytes,
		a.MimeType, a.UploadedAt, a.OwnerEmail, string(a.State))

	mock.ExpectQuery(`(?s)^\s*SELECT\s+.*\s+FROM\s+assets\s+WHERE\b.*position\(\$1 in original_name\).*ORDER\s+BY\s+uploaded_at`).
		WithArgs("a.t", "", "").
		WillReturnRows(rows)

	got, err := repo.Search(context.Background(), Filter{NameContains: "a.t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].OriginalName != "a.txt" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSearch_EmptyResultIsNotError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\s+.*\s+FROM\s+assets\b`).
		WithArgs("nomatch", "", "").
		WillReturnRows(sqlmock.NewRows([]string{
			"content_hash", "storage_key", "original_name", "size_bytes",
			"mime_type", "uploaded_at", "owner_email", "state",
		}))

	got, err := repo.Search(context.Background(), Filter{NameContains: "nomatch"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
