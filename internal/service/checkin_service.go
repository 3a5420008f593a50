package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unilibrary/bagdesk-api/internal/events"
	"github.com/unilibrary/bagdesk-api/internal/models"
	"github.com/unilibrary/bagdesk-api/internal/repository"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
)

// Checkout selector kinds, used for metrics labels.
const (
	SelectorTag  = "tag"
	SelectorID   = "id"
	SelectorScan = "scan"
)

type studentDirectory interface {
	FindByExternalID(ctx context.Context, studentID string) (*models.Student, error)
}

type checkinStore interface {
	FindActiveByStudent(ctx context.Context, studentInternalID string) (*models.BagCheckin, error)
	FindActiveByTagCode(ctx context.Context, tagCode string) (*models.BagCheckinDetail, error)
	FindActiveByID(ctx context.Context, id string) (*models.BagCheckinDetail, error)
	FindByID(ctx context.Context, id string) (*models.BagCheckinDetail, error)
	Insert(ctx context.Context, checkin *models.BagCheckin) error
	Update(ctx context.Context, id string, params repository.UpdateCheckinParams) error
	MarkCheckedOut(ctx context.Context, id, librarianID string, checkoutTime time.Time, scanned bool) error
	ListActiveWithStudents(ctx context.Context) ([]models.BagCheckinDetail, error)
	ListRecentCheckouts(ctx context.Context, studentExternalID string, limit int) ([]time.Time, error)
}

type noticeDispatcher interface {
	DispatchCheckinNotice(notice models.CheckinNotice) error
	DispatchCheckoutNotice(notice models.CheckoutNotice) error
}

type activeListCache interface {
	Get(ctx context.Context) ([]models.BagCheckinDetail, bool)
	Set(ctx context.Context, details []models.BagCheckinDetail)
	Invalidate(ctx context.Context)
}

type changePublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// CheckInRequest holds payload for checking a bag in.
type CheckInRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	BagDescription string `json:"bag_description" validate:"required"`
}

// CheckOutRequest holds payload for checking a bag out by tag code.
type CheckOutRequest struct {
	TagCode string `json:"tag_code" validate:"required"`
}

// ScanCheckOutRequest carries a raw scanned QR payload.
type ScanCheckOutRequest struct {
	Payload string `json:"payload" validate:"required"`
}

// CheckinServiceConfig tunes the lifecycle manager.
type CheckinServiceConfig struct {
	MaxTagAttempts int
	StreakHistory  int
}

// CheckinService orchestrates the bag check-in/check-out lifecycle: tag code
// assignment, the one-active-bag-per-student invariant, state transitions and
// the best-effort notification side effects.
type CheckinService struct {
	checkins  checkinStore
	students  studentDirectory
	tags      *TagGenerator
	notices   noticeDispatcher
	cache     activeListCache
	events    changePublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CheckinServiceConfig
}

// NewCheckinService constructs the lifecycle manager. Dispatcher, cache,
// events and metrics are optional collaborators.
func NewCheckinService(checkins checkinStore, students studentDirectory, tags *TagGenerator, notices noticeDispatcher, cache activeListCache, publisher changePublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CheckinServiceConfig) *CheckinService {
	if tags == nil {
		tags = NewTagGenerator(DefaultTagPrefix)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTagAttempts <= 0 {
		cfg.MaxTagAttempts = 50
	}
	if cfg.StreakHistory <= 0 {
		cfg.StreakHistory = 30
	}
	return &CheckinService{
		checkins:  checkins,
		students:  students,
		tags:      tags,
		notices:   notices,
		cache:     cache,
		events:    publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CheckIn registers a bag for a student and assigns a collision-free tag
// code. The QR payload persistence and the email notice are best-effort and
// never fail the check-in.
func (s *CheckinService) CheckIn(ctx context.Context, req CheckInRequest, librarianID string) (*models.BagCheckinDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	student, err := s.students.FindByExternalID(ctx, strings.TrimSpace(req.StudentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}

	if _, err := s.checkins.FindActiveByStudent(ctx, student.ID); err == nil {
		return nil, appErrors.ErrAlreadyCheckedIn
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing bag")
	}

	tagCode, err := s.assignTagCode(ctx)
	if err != nil {
		return nil, err
	}

	checkin := &models.BagCheckin{
		StudentID:          student.ID,
		TagCode:            tagCode,
		BagDescription:     req.BagDescription,
		Status:             models.CheckinStatusCheckedIn,
		CheckinLibrarianID: librarianID,
	}
	if err := s.checkins.Insert(ctx, checkin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create checkin")
	}
	s.metrics.IncCheckin()

	detail := &models.BagCheckinDetail{
		BagCheckin:        *checkin,
		StudentExternalID: student.StudentID,
		StudentName:       student.FullName,
		StudentEmail:      student.Email,
		StudentPhone:      student.Phone,
	}
	s.afterCheckIn(ctx, detail)
	return detail, nil
}

// assignTagCode draws candidates until none is held by an active record. The
// read-then-insert window is a documented race; the bounded retry guards
// against a pathological run of collisions, not against concurrency.
func (s *CheckinService) assignTagCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.MaxTagAttempts; attempt++ {
		candidate := s.tags.Generate()
		_, err := s.checkins.FindActiveByTagCode(ctx, candidate)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag code")
		}
		s.metrics.IncTagCollision()
	}
	return "", appErrors.ErrTagCodeExhausted
}

// CheckOutByTag releases the active bag carrying the tag code.
func (s *CheckinService) CheckOutByTag(ctx context.Context, tagCode, librarianID string) (*models.BagCheckinDetail, error) {
	detail, err := s.checkins.FindActiveByTagCode(ctx, strings.TrimSpace(tagCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrBagNotFoundOrOut
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up bag")
	}
	return s.checkOut(ctx, detail, librarianID, false, SelectorTag)
}

// CheckOutByID releases the active bag with the given record id. The scanned
// flag is set when the id came from a QR scan.
func (s *CheckinService) CheckOutByID(ctx context.Context, id, librarianID string, scanned bool) (*models.BagCheckinDetail, error) {
	detail, err := s.checkins.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrBagNotFoundOrOut
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up bag")
	}
	selector := SelectorID
	if scanned {
		selector = SelectorScan
	}
	return s.checkOut(ctx, detail, librarianID, scanned, selector)
}

// CheckOutByScan parses a scanned QR payload and releases the referenced bag.
func (s *CheckinService) CheckOutByScan(ctx context.Context, rawPayload, librarianID string) (*models.BagCheckinDetail, error) {
	payload, err := ParseQRPayload(rawPayload)
	if err != nil {
		return nil, err
	}
	return s.CheckOutByID(ctx, payload.CheckinID, librarianID, true)
}

func (s *CheckinService) checkOut(ctx context.Context, detail *models.BagCheckinDetail, librarianID string, scanned bool, selector string) (*models.BagCheckinDetail, error) {
	now := time.Now().UTC()
	if err := s.checkins.MarkCheckedOut(ctx, detail.ID, librarianID, now, scanned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Another session closed it between lookup and update.
			return nil, appErrors.ErrBagNotFoundOrOut
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bag out")
	}

	detail.Status = models.CheckinStatusCheckedOut
	detail.CheckoutTime = &now
	detail.CheckoutLibrarianID = &librarianID
	if scanned {
		detail.QRScanned = true
	}
	s.metrics.IncCheckout(selector)

	s.afterCheckOut(ctx, detail)
	return detail, nil
}

// ListActive returns all active checkins joined with students, newest
// check-in first. Safe to call repeatedly; reads go through the short-TTL
// cache when one is configured.
func (s *CheckinService) ListActive(ctx context.Context) ([]models.BagCheckinDetail, error) {
	if s.cache != nil {
		if details, ok := s.cache.Get(ctx); ok {
			return details, nil
		}
	}
	details, err := s.checkins.ListActiveWithStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active checkins")
	}
	if s.cache != nil {
		s.cache.Set(ctx, details)
	}
	return details, nil
}

// GetCheckin fetches one checkin regardless of status, for slips and detail
// views.
func (s *CheckinService) GetCheckin(ctx context.Context, id string) (*models.BagCheckinDetail, error) {
	detail, err := s.checkins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "checkin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checkin")
	}
	return detail, nil
}

// FilterActive applies a case-insensitive substring match over student name,
// email, tag code and bag description. Purely in-memory; dashboards layer it
// on top of ListActive.
func FilterActive(details []models.BagCheckinDetail, query string) []models.BagCheckinDetail {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return details
	}
	filtered := make([]models.BagCheckinDetail, 0, len(details))
	for _, d := range details {
		email := ""
		if d.StudentEmail != nil {
			email = *d.StudentEmail
		}
		haystack := strings.ToLower(d.StudentName + " " + email + " " + d.TagCode + " " + d.BagDescription)
		if strings.Contains(haystack, query) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// afterCheckIn runs the best-effort side effects of a committed check-in:
// QR payload persistence, the email notice and the dashboard fan-out. Any
// failure here is logged and swallowed; the check-in has already succeeded.
func (s *CheckinService) afterCheckIn(ctx context.Context, detail *models.BagCheckinDetail) {
	payload, err := BuildQRPayload(detail.ID, detail.TagCode, detail.StudentExternalID, detail.CheckinTime)
	if err != nil {
		s.logger.Sugar().Errorw("build qr payload", "checkin_id", detail.ID, "error", err)
	} else {
		if err := s.checkins.Update(ctx, detail.ID, repository.UpdateCheckinParams{QRPayload: &payload}); err != nil {
			s.logger.Sugar().Warnw("persist qr payload", "checkin_id", detail.ID, "error", err)
		}
		detail.QRPayload = &payload
	}

	if s.notices != nil && detail.StudentEmail != nil && *detail.StudentEmail != "" {
		notice := models.CheckinNotice{
			CheckinID:      detail.ID,
			Email:          *detail.StudentEmail,
			Name:           detail.StudentName,
			TagCode:        detail.TagCode,
			BagDescription: detail.BagDescription,
			CheckinTime:    detail.CheckinTime.Local().Format("02 Jan 2006 15:04"),
		}
		if detail.QRPayload != nil {
			notice.QRPayload = *detail.QRPayload
		}
		if err := s.notices.DispatchCheckinNotice(notice); err != nil {
			s.logger.Sugar().Warnw("enqueue checkin notice", "checkin_id", detail.ID, "error", err)
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.events != nil {
		s.events.Publish(ctx, events.Event{Type: events.TypeCheckin, CheckinID: detail.ID, TagCode: detail.TagCode})
	}
}

// afterCheckOut mirrors afterCheckIn for the checkout side: visit analytics
// feed the notice content when the student has an email on file.
func (s *CheckinService) afterCheckOut(ctx context.Context, detail *models.BagCheckinDetail) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.events != nil {
		s.events.Publish(ctx, events.Event{Type: events.TypeCheckout, CheckinID: detail.ID, TagCode: detail.TagCode})
	}

	if s.notices == nil || detail.StudentEmail == nil || *detail.StudentEmail == "" || detail.CheckoutTime == nil {
		return
	}

	history, err := s.checkins.ListRecentCheckouts(ctx, detail.StudentExternalID, s.cfg.StreakHistory)
	if err != nil {
		s.logger.Sugar().Warnw("load checkout history", "checkin_id", detail.ID, "error", err)
		history = nil
	}
	stats := ComputeVisitStats(detail.CheckinTime, *detail.CheckoutTime, history)

	notice := models.CheckoutNotice{
		CheckinID:       detail.ID,
		Email:           *detail.StudentEmail,
		Name:            detail.StudentName,
		TagCode:         detail.TagCode,
		CheckoutTime:    detail.CheckoutTime.Local().Format("02 Jan 2006 15:04"),
		DurationMinutes: stats.DurationMinutes,
		DurationLabel:   stats.DurationLabel,
		StreakDays:      stats.StreakDays,
		ThanksNote:      stats.ThanksNote,
	}
	if err := s.notices.DispatchCheckoutNotice(notice); err != nil {
		s.logger.Sugar().Warnw("enqueue checkout notice", "checkin_id", detail.ID, "error", err)
	}
}
