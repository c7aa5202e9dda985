package services

import (
	"context"
	"time"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/store"
)

type attendanceRecordStore interface {
	Upsert(ctx context.Context, in store.AttendanceUpsert) error
	FindRange(ctx context.Context, userID, startDate, endDate string) ([]models.AttendanceRecord, error)
	Summary(ctx context.Context, startDate, endDate string) ([]models.AttendanceSummaryRow, error)
}

type userDirectory interface {
	FindActiveAgents(ctx context.Context) ([]models.User, error)
}

var validAttendance = map[string]bool{
	models.AttendancePresent: true,
	models.AttendanceAbsent:  true,
	models.AttendanceHalf:    true,
}

// Attendance keeps the per-user per-day workload ledger. Appointment IDs it
// stores are opaque; it never dereferences them into the appointment store.
type Attendance struct {
	recs  attendanceRecordStore
	users userDirectory
}

func NewAttendance(recs attendanceRecordStore, users userDirectory) *Attendance {
	return &Attendance{recs: recs, users: users}
}

// AssignedPatch is a partial update of the assigned sub-document. A nil field
// preserves the stored value.
type AssignedPatch struct {
	Count          *int     `json:"count,omitempty"`
	AppointmentIDs []string `json:"appointmentIds,omitempty"`
}

type SaveAttendanceInput struct {
	UserID     string         `json:"userId"`
	Date       string         `json:"date"`
	Attendance string         `json:"attendance"`
	Assigned   *AssignedPatch `json:"assigned,omitempty"`
}

func (in SaveAttendanceInput) validate() error {
	if in.UserID == "" {
		return apperrors.NewValidation("userId is required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return apperrors.NewValidation("invalid date %q", in.Date)
	}
	if !validAttendance[in.Attendance] {
		return apperrors.NewValidation("unknown attendance value %q", in.Attendance)
	}
	return nil
}

// SaveOrUpdate upserts the (userId, date) record. Partially supplied assigned
// sub-fields merge into the existing record rather than resetting it.
func (s *Attendance) SaveOrUpdate(ctx context.Context, in SaveAttendanceInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	up := store.AttendanceUpsert{
		UserID:     in.UserID,
		Date:       in.Date,
		Attendance: in.Attendance,
	}
	if in.Assigned != nil {
		up.AssignedCount = in.Assigned.Count
		up.AssignedAppointmentIDs = in.Assigned.AppointmentIDs
	}
	return s.recs.Upsert(ctx, up)
}

// AttendanceItemOutcome reports one entry of a bulk save.
type AttendanceItemOutcome struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
	Error  string `json:"error,omitempty"`
}

// BulkSave applies SaveOrUpdate per entry, collecting failures instead of
// aborting.
func (s *Attendance) BulkSave(ctx context.Context, entries []SaveAttendanceInput) ([]AttendanceItemOutcome, error) {
	if len(entries) == 0 {
		return nil, apperrors.NewValidation("no entries supplied")
	}

	outcomes := make([]AttendanceItemOutcome, len(entries))
	for i, in := range entries {
		outcomes[i] = AttendanceItemOutcome{UserID: in.UserID, Date: in.Date}
		if err := s.SaveOrUpdate(ctx, in); err != nil {
			outcomes[i].Error = err.Error()
		}
	}
	return outcomes, nil
}

// RangeForUser lists a user's records over an inclusive calendar range.
func (s *Attendance) RangeForUser(ctx context.Context, userID, startDate, endDate string) ([]models.AttendanceRecord, error) {
	if userID == "" {
		return nil, apperrors.NewValidation("userId is required")
	}
	if err := checkDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return s.recs.FindRange(ctx, userID, startDate, endDate)
}

// Summary buckets day counts per user over an inclusive range.
func (s *Attendance) Summary(ctx context.Context, startDate, endDate string) ([]models.AttendanceSummaryRow, error) {
	if err := checkDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return s.recs.Summary(ctx, startDate, endDate)
}

func (s *Attendance) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	return s.users.FindActiveAgents(ctx)
}

func checkDateRange(startDate, endDate string) error {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return apperrors.NewValidation("invalid startDate %q", startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return apperrors.NewValidation("invalid endDate %q", endDate)
	}
	if end.Before(start) {
		return apperrors.NewValidation("endDate %q is before startDate %q", endDate, startDate)
	}
	return nil
}
