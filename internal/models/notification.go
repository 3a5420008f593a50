package models

// CheckinNotice is the payload handed to the dispatcher after a check-in.
type CheckinNotice struct {
	CheckinID      string `json:"checkin_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	TagCode        string `json:"tag_code"`
	BagDescription string `json:"bag_description"`
	CheckinTime    string `json:"checkin_time"`
	QRPayload      string `json:"qr_payload"`
}

// CheckoutNotice is the payload handed to the dispatcher after a check-out.
type CheckoutNotice struct {
	CheckinID       string `json:"checkin_id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	TagCode         string `json:"tag_code"`
	CheckoutTime    string `json:"checkout_time"`
	DurationMinutes int    `json:"duration_minutes"`
	DurationLabel   string `json:"duration_label"`
	StreakDays      int    `json:"streak_days"`
	ThanksNote      string `json:"thanks_note"`
}
