package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

var detailColumns = []string{
	"id", "student_id", "tag_code", "bag_description", "status", "checkin_time", "checkout_time",
	"checkin_librarian_id", "checkout_librarian_id", "qr_payload", "qr_email_sent", "qr_scanned", "created_at",
	"student_external_id", "student_name", "student_email", "student_phone",
}

func detailRow(rows *sqlmock.Rows, id, tagCode, status string) *sqlmock.Rows {
	return rows.AddRow(id, "internal-1", tagCode, "blue backpack", status, time.Now(), nil,
		"lib-1", nil, nil, false, false, time.Now(),
		"S12345", "Ada Lovelace", "ada@example.edu", nil)
}

func TestCheckinRepositoryFindActiveByTagCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	rows := detailRow(sqlmock.NewRows(detailColumns), "ci-1", "LIB-0042", models.CheckinStatusCheckedIn)
	mock.ExpectQuery(`(?s)SELECT .+ FROM bag_checkins b JOIN students s ON s\.id = b\.student_id\s+WHERE b\.tag_code = \$1 AND b\.status = \$2`).
		WithArgs("LIB-0042", models.CheckinStatusCheckedIn).
		WillReturnRows(rows)

	detail, err := repo.FindActiveByTagCode(context.Background(), "LIB-0042")
	require.NoError(t, err)
	assert.Equal(t, "ci-1", detail.ID)
	assert.Equal(t, "Ada Lovelace", detail.StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinRepositoryFindActiveByTagCodeNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	mock.ExpectQuery("(?s)SELECT .+ FROM bag_checkins").
		WithArgs("LIB-9999", models.CheckinStatusCheckedIn).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByTagCode(context.Background(), "LIB-9999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCheckinRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	mock.ExpectExec("INSERT INTO bag_checkins").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	checkin := &models.BagCheckin{
		StudentID:          "internal-1",
		TagCode:            "LIB-0042",
		BagDescription:     "blue backpack",
		Status:             models.CheckinStatusCheckedIn,
		CheckinLibrarianID: "lib-1",
	}
	err := repo.Insert(context.Background(), checkin)
	require.NoError(t, err)
	assert.NotEmpty(t, checkin.ID)
	assert.False(t, checkin.CheckinTime.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinRepositoryMarkCheckedOut(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE bag_checkins").
		WithArgs("ci-1", models.CheckinStatusCheckedOut, now, "lib-2", false, models.CheckinStatusCheckedIn).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkCheckedOut(context.Background(), "ci-1", "lib-2", now, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinRepositoryMarkCheckedOutAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE bag_checkins").
		WithArgs("ci-1", models.CheckinStatusCheckedOut, now, "lib-2", true, models.CheckinStatusCheckedIn).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCheckedOut(context.Background(), "ci-1", "lib-2", now, true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCheckinRepositoryUpdatePartialPatch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	payload := `{"checkInId":"ci-1"}`
	mock.ExpectExec(`UPDATE bag_checkins SET qr_payload = \$2 WHERE id = \$1`).
		WithArgs("ci-1", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "ci-1", UpdateCheckinParams{QRPayload: &payload})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	// No expectations set: an empty patch must not touch the database.
	err := repo.Update(context.Background(), "ci-1", UpdateCheckinParams{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinRepositoryListActiveWithStudents(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	rows := sqlmock.NewRows(detailColumns)
	detailRow(rows, "ci-2", "LIB-0002", models.CheckinStatusCheckedIn)
	detailRow(rows, "ci-1", "LIB-0001", models.CheckinStatusCheckedIn)
	mock.ExpectQuery(`(?s)SELECT .+ FROM bag_checkins b JOIN students s ON s\.id = b\.student_id\s+WHERE b\.status = \$1 ORDER BY b\.checkin_time DESC`).
		WithArgs(models.CheckinStatusCheckedIn).
		WillReturnRows(rows)

	details, err := repo.ListActiveWithStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "ci-2", details[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckinRepositoryListRecentCheckouts(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewCheckinRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"checkout_time"}).
		AddRow(now).
		AddRow(now.AddDate(0, 0, -1))
	mock.ExpectQuery(`SELECT b\.checkout_time FROM bag_checkins b JOIN students s ON s\.id = b\.student_id`).
		WithArgs("S12345", models.CheckinStatusCheckedOut, 30).
		WillReturnRows(rows)

	timestamps, err := repo.ListRecentCheckouts(context.Background(), "S12345", 0)
	require.NoError(t, err)
	require.Len(t, timestamps, 2)
	assert.True(t, timestamps[0].After(timestamps[1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}
