package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	raw, err := BuildQRPayload("ci-1", "LIB-0042", "S12345", ts)
	require.NoError(t, err)
	assert.Contains(t, raw, `"checkInId":"ci-1"`)
	assert.Contains(t, raw, `"tagCode":"LIB-0042"`)

	payload, err := ParseQRPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "ci-1", payload.CheckinID)
	assert.Equal(t, "LIB-0042", payload.TagCode)
	assert.Equal(t, "S12345", payload.StudentID)
	assert.Equal(t, "2026-03-10T09:30:00Z", payload.Timestamp)
}

func TestParseQRPayloadMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "{}", `{"tagCode":"LIB-0001"}`} {
		_, err := ParseQRPayload(raw)
		require.Error(t, err, "payload %q should be rejected", raw)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrMalformedScan.Code, appErr.Code)
	}
}
