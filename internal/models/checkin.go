package models

import "time"

// Checkin lifecycle states. A record is created checked_in and transitions
// exactly once to checked_out; there is no path back.
const (
	CheckinStatusCheckedIn  = "checked_in"
	CheckinStatusCheckedOut = "checked_out"
)

// BagCheckin is the lifecycle entity tracking one bag at the desk.
type BagCheckin struct {
	ID                  string     `db:"id" json:"id"`
	StudentID           string     `db:"student_id" json:"student_id"`
	TagCode             string     `db:"tag_code" json:"tag_code"`
	BagDescription      string     `db:"bag_description" json:"bag_description"`
	Status              string     `db:"status" json:"status"`
	CheckinTime         time.Time  `db:"checkin_time" json:"checkin_time"`
	CheckoutTime        *time.Time `db:"checkout_time" json:"checkout_time,omitempty"`
	CheckinLibrarianID  string     `db:"checkin_librarian_id" json:"checkin_librarian_id"`
	CheckoutLibrarianID *string    `db:"checkout_librarian_id" json:"checkout_librarian_id,omitempty"`
	QRPayload           *string    `db:"qr_payload" json:"qr_payload,omitempty"`
	QREmailSent         bool       `db:"qr_email_sent" json:"qr_email_sent"`
	QRScanned           bool       `db:"qr_scanned" json:"qr_scanned"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// BagCheckinDetail joins a checkin with its owning student for display.
type BagCheckinDetail struct {
	BagCheckin
	StudentExternalID string  `db:"student_external_id" json:"student_external_id"`
	StudentName       string  `db:"student_name" json:"student_name"`
	StudentEmail      *string `db:"student_email" json:"student_email,omitempty"`
	StudentPhone      *string `db:"student_phone" json:"student_phone,omitempty"`
}

// QRPayload is the structured reference encoded into the scannable code.
// The scan checkout path parses this and closes the record by CheckinID.
type QRPayload struct {
	CheckinID string `json:"checkInId"`
	TagCode   string `json:"tagCode"`
	StudentID string `json:"studentId"`
	Timestamp string `json:"timestamp"`
}

// VisitStats is derived on checkout and feeds the notification content.
type VisitStats struct {
	DurationMinutes int    `json:"duration_minutes"`
	DurationLabel   string `json:"duration_label"`
	StreakDays      int    `json:"streak_days"`
	ThanksNote      string `json:"thanks_note"`
}
