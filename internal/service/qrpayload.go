package service

import (
	"encoding/json"
	"time"

	"github.com/unilibrary/bagdesk-api/internal/models"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

// BuildQRPayload encodes the reference data carried by a bag's QR code.
func BuildQRPayload(checkinID, tagCode, studentExternalID string, ts time.Time) (string, error) {
	payload := models.QRPayload{
		CheckinID: checkinID,
		TagCode:   tagCode,
		StudentID: studentExternalID,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseQRPayload decodes a scanned QR string back into its reference data.
// Anything that does not carry the required fields is rejected.
func ParseQRPayload(raw string) (*models.QRPayload, error) {
	var payload models.QRPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedScan.Code, appErrors.ErrMalformedScan.Status, appErrors.ErrMalformedScan.Message)
	}
	if payload.CheckinID == "" || payload.TagCode == "" || payload.Timestamp == "" {
		return nil, appErrors.Clone(appErrors.ErrMalformedScan, "scanned QR payload is missing required fields")
	}
	return &payload, nil
}
