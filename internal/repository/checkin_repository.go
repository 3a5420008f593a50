package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

const checkinDetailColumns = `b.id, b.student_id, b.tag_code, b.bag_description, b.status, b.checkin_time, b.checkout_time,
        b.checkin_librarian_id, b.checkout_librarian_id, b.qr_payload, b.qr_email_sent, b.qr_scanned, b.created_at,
        s.student_id AS student_external_id, s.full_name AS student_name, s.email AS student_email, s.phone AS student_phone`

// UpdateCheckinParams patches mutable checkin fields. Nil fields are left
// untouched so the async notification-flag update cannot clobber the
// checkout transition.
type UpdateCheckinParams struct {
	Status              *string
	CheckoutTime        *time.Time
	CheckoutLibrarianID *string
	QRPayload           *string
	QREmailSent         *bool
	QRScanned           *bool
}

// CheckinRepository manages persistence for bag checkin records.
type CheckinRepository struct {
	db *sqlx.DB
}

// NewCheckinRepository constructs a CheckinRepository.
func NewCheckinRepository(db *sqlx.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// FindActiveByStudent returns the student's active checkin, if any.
func (r *CheckinRepository) FindActiveByStudent(ctx context.Context, studentInternalID string) (*models.BagCheckin, error) {
	const query = `SELECT id, student_id, tag_code, bag_description, status, checkin_time, checkout_time,
        checkin_librarian_id, checkout_librarian_id, qr_payload, qr_email_sent, qr_scanned, created_at
        FROM bag_checkins WHERE student_id = $1 AND status = $2`
	var checkin models.BagCheckin
	if err := r.db.GetContext(ctx, &checkin, query, studentInternalID, models.CheckinStatusCheckedIn); err != nil {
		return nil, err
	}
	return &checkin, nil
}

// FindActiveByTagCode returns the active checkin carrying the tag code, joined
// with its student.
func (r *CheckinRepository) FindActiveByTagCode(ctx context.Context, tagCode string) (*models.BagCheckinDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM bag_checkins b JOIN students s ON s.id = b.student_id
        WHERE b.tag_code = $1 AND b.status = $2`, checkinDetailColumns)
	var detail models.BagCheckinDetail
	if err := r.db.GetContext(ctx, &detail, query, tagCode, models.CheckinStatusCheckedIn); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindActiveByID returns the active checkin with the given record id, joined
// with its student.
func (r *CheckinRepository) FindActiveByID(ctx context.Context, id string) (*models.BagCheckinDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM bag_checkins b JOIN students s ON s.id = b.student_id
        WHERE b.id = $1 AND b.status = $2`, checkinDetailColumns)
	var detail models.BagCheckinDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.CheckinStatusCheckedIn); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByID returns a checkin regardless of status, joined with its student.
func (r *CheckinRepository) FindByID(ctx context.Context, id string) (*models.BagCheckinDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM bag_checkins b JOIN students s ON s.id = b.student_id
        WHERE b.id = $1`, checkinDetailColumns)
	var detail models.BagCheckinDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Insert persists a new checkin record.
func (r *CheckinRepository) Insert(ctx context.Context, checkin *models.BagCheckin) error {
	if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if checkin.CheckinTime.IsZero() {
		checkin.CheckinTime = now
	}
	if checkin.CreatedAt.IsZero() {
		checkin.CreatedAt = now
	}
	const query = `INSERT INTO bag_checkins (id, student_id, tag_code, bag_description, status, checkin_time,
        checkin_librarian_id, qr_payload, qr_email_sent, qr_scanned, created_at)
        VALUES (:id, :student_id, :tag_code, :bag_description, :status, :checkin_time,
        :checkin_librarian_id, :qr_payload, :qr_email_sent, :qr_scanned, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, checkin); err != nil {
		return fmt.Errorf("insert checkin: %w", err)
	}
	return nil
}

// Update applies a partial patch to a checkin record.
func (r *CheckinRepository) Update(ctx context.Context, id string, params UpdateCheckinParams) error {
	sets := make([]string, 0, 6)
	args := []interface{}{id}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Status != nil {
		appendSet("status", *params.Status)
	}
	if params.CheckoutTime != nil {
		appendSet("checkout_time", *params.CheckoutTime)
	}
	if params.CheckoutLibrarianID != nil {
		appendSet("checkout_librarian_id", *params.CheckoutLibrarianID)
	}
	if params.QRPayload != nil {
		appendSet("qr_payload", *params.QRPayload)
	}
	if params.QREmailSent != nil {
		appendSet("qr_email_sent", *params.QREmailSent)
	}
	if params.QRScanned != nil {
		appendSet("qr_scanned", *params.QRScanned)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE bag_checkins SET %s WHERE id = $1", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update checkin: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkCheckedOut transitions an active record to checked_out. The status
// guard in the WHERE clause makes the terminal transition happen at most
// once even when two librarians race on the same tag.
func (r *CheckinRepository) MarkCheckedOut(ctx context.Context, id, librarianID string, checkoutTime time.Time, scanned bool) error {
	const query = `UPDATE bag_checkins
        SET status = $2, checkout_time = $3, checkout_librarian_id = $4, qr_scanned = (qr_scanned OR $5)
        WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, id, models.CheckinStatusCheckedOut, checkoutTime, librarianID, scanned, models.CheckinStatusCheckedIn)
	if err != nil {
		return fmt.Errorf("mark checked out: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark checked out: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActiveWithStudents returns all active checkins joined with students,
// newest check-in first.
func (r *CheckinRepository) ListActiveWithStudents(ctx context.Context) ([]models.BagCheckinDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM bag_checkins b JOIN students s ON s.id = b.student_id
        WHERE b.status = $1 ORDER BY b.checkin_time DESC`, checkinDetailColumns)
	var details []models.BagCheckinDetail
	if err := r.db.SelectContext(ctx, &details, query, models.CheckinStatusCheckedIn); err != nil {
		return nil, fmt.Errorf("list active checkins: %w", err)
	}
	return details, nil
}

// ListRecentCheckouts returns the student's most recent checkout timestamps,
// newest first, capped at limit.
func (r *CheckinRepository) ListRecentCheckouts(ctx context.Context, studentExternalID string, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}
	const query = `SELECT b.checkout_time FROM bag_checkins b JOIN students s ON s.id = b.student_id
        WHERE s.student_id = $1 AND b.status = $2 AND b.checkout_time IS NOT NULL
        ORDER BY b.checkout_time DESC LIMIT $3`
	var timestamps []time.Time
	if err := r.db.SelectContext(ctx, &timestamps, query, studentExternalID, models.CheckinStatusCheckedOut, limit); err != nil {
		return nil, fmt.Errorf("list recent checkouts: %w", err)
	}
	return timestamps, nil
}
