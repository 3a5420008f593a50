package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unilibrary/bagdesk-api/internal/events"
	"github.com/unilibrary/bagdesk-api/internal/models"
	"github.com/unilibrary/bagdesk-api/internal/service"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
	"github.com/unilibrary/bagdesk-api/pkg/export"
	"github.com/unilibrary/bagdesk-api/pkg/response"
)

type checkinService interface {
	CheckIn(ctx context.Context, req service.CheckInRequest, librarianID string) (*models.BagCheckinDetail, error)
	CheckOutByTag(ctx context.Context, tagCode, librarianID string) (*models.BagCheckinDetail, error)
	CheckOutByScan(ctx context.Context, rawPayload, librarianID string) (*models.BagCheckinDetail, error)
	ListActive(ctx context.Context) ([]models.BagCheckinDetail, error)
	GetCheckin(ctx context.Context, id string) (*models.BagCheckinDetail, error)
}

// CheckinHandler exposes the bag lifecycle endpoints.
type CheckinHandler struct {
	checkins checkinService
	stream   *events.Publisher
	slips    *export.SlipRenderer
}

// NewCheckinHandler constructs CheckinHandler. Stream and slips are optional;
// the related endpoints respond 503 when they are not wired.
func NewCheckinHandler(checkins checkinService, stream *events.Publisher, slips *export.SlipRenderer) *CheckinHandler {
	return &CheckinHandler{checkins: checkins, stream: stream, slips: slips}
}

// CheckIn godoc
// @Summary Check a bag in and assign a tag code
// @Tags Bags
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Router /bags/checkin [post]
func (h *CheckinHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.checkins.CheckIn(c.Request.Context(), req, h.librarianID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// CheckOut godoc
// @Summary Check a bag out by tag code
// @Tags Bags
// @Accept json
// @Produce json
// @Param payload body service.CheckOutRequest true "Checkout payload"
// @Success 200 {object} response.Envelope
// @Router /bags/checkout [post]
func (h *CheckinHandler) CheckOut(c *gin.Context) {
	var req service.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.checkins.CheckOutByTag(c.Request.Context(), req.TagCode, h.librarianID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// CheckOutScan godoc
// @Summary Check a bag out from a scanned QR payload
// @Tags Bags
// @Accept json
// @Produce json
// @Param payload body service.ScanCheckOutRequest true "Raw QR payload"
// @Success 200 {object} response.Envelope
// @Router /bags/checkout/scan [post]
func (h *CheckinHandler) CheckOutScan(c *gin.Context) {
	var req service.ScanCheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.checkins.CheckOutByScan(c.Request.Context(), req.Payload, h.librarianID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// ListActive godoc
// @Summary List active checkins, newest first
// @Tags Bags
// @Produce json
// @Param search query string false "Substring filter over name, email, tag code and description"
// @Success 200 {object} response.Envelope
// @Router /bags/active [get]
func (h *CheckinHandler) ListActive(c *gin.Context) {
	details, err := h.checkins.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if query := c.Query("search"); query != "" {
		details = service.FilterActive(details, query)
	}
	response.JSON(c, http.StatusOK, details, map[string]interface{}{"count": len(details)})
}

// Stream godoc
// @Summary Server-sent event stream of bag lifecycle changes
// @Tags Bags
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /bags/active/stream [get]
func (h *CheckinHandler) Stream(c *gin.Context) {
	if h.stream == nil {
		response.Error(c, appErrors.New("STREAM_UNAVAILABLE", http.StatusServiceUnavailable, "event stream is not configured"))
		return
	}

	sub := h.stream.Subscribe(c.Request.Context())
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := sub.Channel()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", msg.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// TagSlip godoc
// @Summary Printable PDF tag slip for a checkin
// @Tags Bags
// @Produce application/pdf
// @Param id path string true "Checkin ID"
// @Success 200 {file} binary
// @Router /bags/{id}/slip [get]
func (h *CheckinHandler) TagSlip(c *gin.Context) {
	if h.slips == nil {
		response.Error(c, appErrors.New("SLIPS_UNAVAILABLE", http.StatusServiceUnavailable, "slip rendering is not configured"))
		return
	}

	detail, err := h.checkins.GetCheckin(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	slip := export.TagSlip{
		TagCode:        detail.TagCode,
		StudentName:    detail.StudentName,
		StudentID:      detail.StudentExternalID,
		BagDescription: detail.BagDescription,
		CheckinTime:    detail.CheckinTime,
	}
	if detail.QRPayload != nil {
		slip.QRPayload = *detail.QRPayload
	}

	pdfBytes, err := h.slips.Render(slip)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render tag slip"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=tag-slip-%s.pdf", detail.TagCode))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *CheckinHandler) librarianID(c *gin.Context) string {
	if session := sessionFromContext(c); session != nil {
		return session.LibrarianID
	}
	return ""
}
