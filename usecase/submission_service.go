package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quranchallenge/server/domain"
	"github.com/quranchallenge/server/domain/entities"
	"github.com/quranchallenge/server/domain/repositories"
	"github.com/quranchallenge/server/internal/metrics"
	"github.com/quranchallenge/server/internal/validation"
)

// ReadingInput is a reading submission as received from a client
type ReadingInput struct {
	Masjid         string              `json:"masjid" validate:"required"`
	ChildName      string              `json:"childName" validate:"required"`
	Categories     []entities.Category `json:"categories" validate:"required,min=1,dive,category"`
	Description    string              `json:"description"`
	ImamVerified   bool                `json:"imamVerified"`
	BulkSubmission bool                `json:"bulkSubmission"`
	IPAddress      string              `json:"-"`
	UserAgent      string              `json:"-"`
}

func (in *ReadingInput) normalize() {
	in.Masjid = strings.TrimSpace(in.Masjid)
	in.ChildName = strings.TrimSpace(in.ChildName)
	in.Description = strings.TrimSpace(in.Description)
	in.Categories = validation.TrimCategories(in.Categories)
}

// HistoricalInput is a backdated reading reported by a parent
type HistoricalInput struct {
	Masjid      string              `json:"masjid" validate:"required"`
	ChildName   string              `json:"childName" validate:"required"`
	Categories  []entities.Category `json:"categories" validate:"required,min=1,dive,category"`
	ParentEmail string              `json:"parentEmail" validate:"required,email"`
	ReadingDate string              `json:"readingDate" validate:"required"`
	Description string              `json:"description"`
}

func (in *HistoricalInput) normalize() {
	in.Masjid = strings.TrimSpace(in.Masjid)
	in.ChildName = strings.TrimSpace(in.ChildName)
	in.ParentEmail = entities.NormalizeEmail(in.ParentEmail)
	in.ReadingDate = strings.TrimSpace(in.ReadingDate)
	in.Description = strings.TrimSpace(in.Description)
	in.Categories = validation.TrimCategories(in.Categories)
}

// SubmissionService validates and stores reading events
type SubmissionService struct {
	readings   repositories.ReadingRepository
	historical repositories.HistoricalEntryRepository
	validator  *validation.Validator
	metrics    *metrics.Manager
	logger     *zap.Logger
	now        func() time.Time
}

// NewSubmissionService creates a new submission service. m may be nil.
func NewSubmissionService(
	readings repositories.ReadingRepository,
	historical repositories.HistoricalEntryRepository,
	v *validation.Validator,
	m *metrics.Manager,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		readings:   readings,
		historical: historical,
		validator:  v,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitReading validates in and persists it as a new reading
func (s *SubmissionService) SubmitReading(ctx context.Context, in ReadingInput) (*entities.Reading, error) {
	in.normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	reading := entities.NewReading(in.Masjid, in.ChildName, in.Categories)
	reading.SubmissionDate = s.now().UTC()
	reading.Description = in.Description
	reading.ImamVerified = in.ImamVerified
	reading.BulkSubmission = in.BulkSubmission
	reading.IPAddress = in.IPAddress
	reading.UserAgent = in.UserAgent

	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, domain.Persistence("save reading", err)
	}

	s.metrics.RecordReading(reading.Categories)
	s.logger.Info("Reading logged",
		zap.String("reading_id", reading.ID.Hex()),
		zap.String("masjid", reading.Masjid),
		zap.Int("categories", reading.TotalReadings()))

	return reading, nil
}

// SubmitHistoricalEntry validates in and persists it as a backdated entry
func (s *SubmissionService) SubmitHistoricalEntry(ctx context.Context, in HistoricalInput) (*entities.HistoricalEntry, error) {
	in.normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	readingDate, err := validation.ParseDate("readingDate", in.ReadingDate)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if readingDate.After(now) {
		return nil, domain.NewValidationError("readingDate", "must not be in the future")
	}

	entry := &entities.HistoricalEntry{
		Masjid:         in.Masjid,
		ChildName:      in.ChildName,
		Categories:     in.Categories,
		Description:    in.Description,
		ParentEmail:    in.ParentEmail,
		ReadingDate:    readingDate,
		SubmissionDate: now,
	}

	if err := s.historical.Create(ctx, entry); err != nil {
		return nil, domain.Persistence("save historical entry", err)
	}

	s.metrics.RecordHistoricalEntry()
	s.logger.Info("Historical entry logged",
		zap.String("entry_id", entry.ID.Hex()),
		zap.String("masjid", entry.Masjid),
		zap.Time("reading_date", entry.ReadingDate))

	return entry, nil
}

// ChildSubmissions returns every reading for childName, newest first
func (s *SubmissionService) ChildSubmissions(ctx context.Context, childName string) ([]*entities.Reading, error) {
	childName = strings.TrimSpace(childName)
	if childName == "" {
		return nil, domain.NewValidationError("childName", "is required")
	}

	readings, err := s.readings.GetByChildName(ctx, childName)
	if err != nil {
		return nil, domain.Persistence("list child submissions", err)
	}
	return readings, nil
}
