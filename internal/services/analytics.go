package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/store"
)

type appointmentQueryStore interface {
	FindInRange(ctx context.Context, filter bson.M, dateField string, start, endExclusive time.Time) ([]models.Appointment, error)
	HasCompletedSibling(ctx context.Context, office, patientID, insurance string, monthStart, maxDate time.Time, excludeID primitive.ObjectID) (bool, error)
	AssignedCounts(ctx context.Context, office, dateField string, start, endExclusive time.Time) ([]store.UserCount, error)
	CompletionCountByUser(ctx context.Context, userID, dateField string, start, endExclusive time.Time) (int64, error)
	CompletionAnalysis(ctx context.Context, office, dateField string, start, endExclusive time.Time) ([]store.StatusCount, error)
	Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error)
}

// Fields a dateType parameter may select for range filtering. Anything else is
// rejected before the store is touched.
var allowedDateFields = map[string]string{
	"":                "appointmentDate",
	"appointmentDate": "appointmentDate",
	"ivAssignedDate":  "ivAssignedDate",
	"ivCompletedDate": "ivCompletedDate",
}

// Analytics answers completion and assignment questions over the appointment
// collection. Listing results carry the isPreviouslyCompleted flag: work
// already satisfied by a Completed sibling earlier in the same calendar month
// should not be counted as pending again.
type Analytics struct {
	appts appointmentQueryStore
	loc   *time.Location
}

func NewAnalytics(appts appointmentQueryStore, loc *time.Location) *Analytics {
	return &Analytics{appts: appts, loc: loc}
}

// FetchForOffice lists an office's appointments with appointmentDate in the
// inclusive calendar range, each annotated with isPreviouslyCompleted.
func (s *Analytics) FetchForOffice(ctx context.Context, office, startDate, endDate string) ([]models.AnnotatedAppointment, error) {
	if office == "" {
		return nil, apperrors.NewValidation("office is required")
	}
	start, endEx, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.appts.FindInRange(ctx, bson.M{"officeName": office}, "appointmentDate", start, endEx)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, rows)
}

// FetchForUser lists a user's assigned appointments in the inclusive range,
// with the same annotation.
func (s *Analytics) FetchForUser(ctx context.Context, userID, startDate, endDate string) ([]models.AnnotatedAppointment, error) {
	if userID == "" {
		return nil, apperrors.NewValidation("userId is required")
	}
	start, endEx, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.appts.FindInRange(ctx, bson.M{"assignedUser": userID}, "appointmentDate", start, endEx)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, rows)
}

// annotate computes the per-row flag: X is previously completed iff a
// different appointment with the same (office, patientId, insuranceName) in
// the same calendar month is Completed with a date at or before X's.
func (s *Analytics) annotate(ctx context.Context, rows []models.Appointment) ([]models.AnnotatedAppointment, error) {
	out := make([]models.AnnotatedAppointment, 0, len(rows))
	for _, row := range rows {
		d := row.AppointmentDate.In(s.loc)
		monthStart := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, s.loc)

		prev, err := s.appts.HasCompletedSibling(ctx, row.OfficeName, row.PatientID, row.InsuranceName, monthStart, row.AppointmentDate, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.AnnotatedAppointment{
			Appointment:           row,
			IsPreviouslyCompleted: prev,
		})
	}
	return out, nil
}

func (s *Analytics) AssignedCounts(ctx context.Context, office, startDate, endDate, dateType string) ([]store.UserCount, error) {
	if office == "" {
		return nil, apperrors.NewValidation("office is required")
	}
	field, err := resolveDateField(dateType)
	if err != nil {
		return nil, err
	}
	start, endEx, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.appts.AssignedCounts(ctx, office, field, start, endEx)
}

func (s *Analytics) CompletionCountByUser(ctx context.Context, userID, startDate, endDate, dateType string) (int64, error) {
	if userID == "" {
		return 0, apperrors.NewValidation("userId is required")
	}
	field, err := resolveDateField(dateType)
	if err != nil {
		return 0, err
	}
	start, endEx, err := s.parseRange(startDate, endDate)
	if err != nil {
		return 0, err
	}
	return s.appts.CompletionCountByUser(ctx, userID, field, start, endEx)
}

func (s *Analytics) CompletionAnalysis(ctx context.Context, office, startDate, endDate, dateType string) ([]store.StatusCount, error) {
	if office == "" {
		return nil, apperrors.NewValidation("office is required")
	}
	field, err := resolveDateField(dateType)
	if err != nil {
		return nil, err
	}
	start, endEx, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.appts.CompletionAnalysis(ctx, office, field, start, endEx)
}

// Aggregate is the ad-hoc read-only escape hatch. Shape validation happens in
// the store before execution.
func (s *Analytics) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	return s.appts.Aggregate(ctx, pipeline)
}

// parseRange turns inclusive ISO calendar dates into [start, endExclusive) in
// the business timezone.
func (s *Analytics) parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("invalid startDate %q", startDate)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidation("invalid endDate %q", endDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.NewValidation("endDate %q is before startDate %q", endDate, startDate)
	}
	return start, end.AddDate(0, 0, 1), nil
}

func resolveDateField(dateType string) (string, error) {
	field, ok := allowedDateFields[dateType]
	if !ok {
		return "", apperrors.NewValidation("unknown dateType %q", dateType)
	}
	return field, nil
}
