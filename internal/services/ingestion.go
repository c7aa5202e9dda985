package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/source"
)

type appointmentIngestStore interface {
	ExistsByKey(ctx context.Context, office, patientID, insurance string, dayStart, dayEnd time.Time) (bool, error)
	InsertMany(ctx context.Context, appts []models.Appointment) (int, []string, error)
}

type fetchLogAppender interface {
	AppendOperation(ctx context.Context, date string, op models.FetchOperation) error
}

type officeLister interface {
	FindActive(ctx context.Context) ([]models.Office, error)
}

// RunSummary is what one ingestion run reports back: the per-office outcomes,
// in office order.
type RunSummary struct {
	OperationID string                     `json:"operationId"`
	StartedAt   time.Time                  `json:"startedAt"`
	Offices     []models.OfficeFetchResult `json:"offices"`
}

// Ingestion pulls each active office's feed, decides NEW vs DUPLICATE per row
// and bulk-inserts the new ones.
//
// The dedup check and the insert are not atomic: two concurrent runs over the
// same office can both pass the existence check and admit a duplicate. The
// scheduler triggers runs one at a time in-process, which is the operating
// assumption; nothing serializes separate processes.
type Ingestion struct {
	src        source.RowSource
	appts      appointmentIngestStore
	fetchLog   fetchLogAppender
	offices    officeLister
	normalizer *Normalizer
	loc        *time.Location
	lookback   int
	horizon    int
	log        zerolog.Logger
}

func NewIngestion(src source.RowSource, appts appointmentIngestStore, fetchLog fetchLogAppender, offices officeLister, loc *time.Location, lookbackDays, horizonDays int, log zerolog.Logger) *Ingestion {
	return &Ingestion{
		src:        src,
		appts:      appts,
		fetchLog:   fetchLog,
		offices:    offices,
		normalizer: NewNormalizer(loc),
		loc:        loc,
		lookback:   lookbackDays,
		horizon:    horizonDays,
		log:        log,
	}
}

// Run ingests every active office sequentially. A source failure for one
// office is recorded in that office's outcome and the run moves on; the run
// only fails as a whole when reference data or the fetch log is unreachable.
func (s *Ingestion) Run(ctx context.Context) (*RunSummary, error) {
	offices, err := s.offices.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.loc)
	summary := &RunSummary{
		OperationID: uuid.NewString(),
		StartedAt:   now,
		Offices:     make([]models.OfficeFetchResult, 0, len(offices)),
	}

	for _, office := range offices {
		result := s.runOffice(ctx, office, now)
		summary.Offices = append(summary.Offices, result)
		s.log.Info().
			Str("office", result.Office).
			Int("fetched", result.Fetched).
			Int("new", result.New).
			Int("archived", result.Archived).
			Int("errors", len(result.Errors)).
			Msg("office ingested")
	}

	op := models.FetchOperation{
		OperationID: summary.OperationID,
		Timestamp:   now,
		Offices:     summary.Offices,
	}
	if err := s.fetchLog.AppendOperation(ctx, now.Format("2006-01-02"), op); err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *Ingestion) runOffice(ctx context.Context, office models.Office, now time.Time) models.OfficeFetchResult {
	result := models.OfficeFetchResult{Office: office.Name}

	rows, err := s.src.FetchRows(ctx, office.SheetName)
	if err != nil {
		upstream := apperrors.NewUpstream(office.Name, err)
		s.log.Error().Err(upstream).Str("office", office.Name).Msg("source fetch failed")
		result.Errors = append(result.Errors, upstream.Error())
		return result
	}
	result.Fetched = len(rows)

	windowStart := startOfDay(now, s.loc).AddDate(0, 0, -s.lookback)
	windowEnd := startOfDay(now, s.loc).AddDate(0, 0, s.horizon+1)

	var candidates []models.Appointment
	// Keys already accepted this run. The store check alone cannot catch a
	// repeated key inside one snapshot because the insert happens after the
	// loop.
	accepted := make(map[string]bool)
	for i, row := range rows {
		appt, err := s.normalizer.Normalize(row, office.Name, now)
		if err != nil {
			s.log.Warn().Err(err).Str("office", office.Name).Int("row", i).Msg("row rejected")
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		if appt.AppointmentDate.Before(windowStart) || !appt.AppointmentDate.Before(windowEnd) {
			continue
		}

		dayStart := appt.AppointmentDate
		dayEnd := dayStart.AddDate(0, 0, 1)
		key := appt.OfficeName + "|" + appt.PatientID + "|" + appt.InsuranceName + "|" + dayStart.Format("2006-01-02")
		if accepted[key] {
			result.Archived++
			continue
		}
		exists, err := s.appts.ExistsByKey(ctx, appt.OfficeName, appt.PatientID, appt.InsuranceName, dayStart, dayEnd)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i, err))
			continue
		}
		if exists {
			result.Archived++
			continue
		}
		accepted[key] = true
		candidates = append(candidates, *appt)
	}

	inserted, itemErrs, err := s.appts.InsertMany(ctx, candidates)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.New = inserted
	result.Errors = append(result.Errors, itemErrs...)

	for _, appt := range candidates {
		result.NewItems = append(result.NewItems, models.AppointmentSummary{
			PatientID:       appt.PatientID,
			PatientName:     appt.PatientName,
			InsuranceName:   appt.InsuranceName,
			AppointmentDate: appt.AppointmentDate,
			AppointmentTime: appt.AppointmentTime,
		})
	}
	return result
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
