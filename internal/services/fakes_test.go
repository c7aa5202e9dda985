package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/source"
	"github.com/denteliv/iv-api/internal/store"
)

// memAppointments is an in-memory stand-in for the appointment store,
// mirroring the mongo filter semantics the services rely on.
type memAppointments struct {
	docs []models.Appointment
}

func (m *memAppointments) ExistsByKey(_ context.Context, office, patientID, insurance string, dayStart, dayEnd time.Time) (bool, error) {
	for _, d := range m.docs {
		if d.OfficeName == office && d.PatientID == patientID && d.InsuranceName == insurance &&
			!d.AppointmentDate.Before(dayStart) && d.AppointmentDate.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAppointments) InsertMany(_ context.Context, appts []models.Appointment) (int, []string, error) {
	for i := range appts {
		if appts[i].ID.IsZero() {
			appts[i].ID = primitive.NewObjectID()
		}
		m.docs = append(m.docs, appts[i])
	}
	return len(appts), nil, nil
}

func (m *memAppointments) InsertOne(_ context.Context, appt *models.Appointment) error {
	if appt.ID.IsZero() {
		appt.ID = primitive.NewObjectID()
	}
	m.docs = append(m.docs, *appt)
	return nil
}

func (m *memAppointments) UpdateByID(_ context.Context, id primitive.ObjectID, set bson.M) (int64, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			applySet(&m.docs[i], set)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memAppointments) BulkUpdate(ctx context.Context, entries []store.BulkUpdateEntry) (*store.BulkUpdateResult, error) {
	out := &store.BulkUpdateResult{ItemErrors: map[int]string{}}
	for _, e := range entries {
		matched, _ := m.UpdateByID(ctx, e.ID, e.Set)
		out.Matched += matched
		out.Modified += matched
	}
	return out, nil
}

func (m *memAppointments) FindInRange(_ context.Context, filter bson.M, dateField string, start, endExclusive time.Time) ([]models.Appointment, error) {
	if dateField != "appointmentDate" {
		return nil, fmt.Errorf("fake store only filters on appointmentDate, got %q", dateField)
	}
	var out []models.Appointment
	for _, d := range m.docs {
		if office, ok := filter["officeName"].(string); ok && d.OfficeName != office {
			continue
		}
		if user, ok := filter["assignedUser"].(string); ok && d.AssignedUser != user {
			continue
		}
		if d.AppointmentDate.Before(start) || !d.AppointmentDate.Before(endExclusive) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentDate.Before(out[j].AppointmentDate) })
	return out, nil
}

func (m *memAppointments) HasCompletedSibling(_ context.Context, office, patientID, insurance string, monthStart, maxDate time.Time, excludeID primitive.ObjectID) (bool, error) {
	for _, d := range m.docs {
		if d.ID == excludeID {
			continue
		}
		if d.OfficeName != office || d.PatientID != patientID || d.InsuranceName != insurance {
			continue
		}
		if d.CompletionStatus != models.CompletionCompleted {
			continue
		}
		if d.AppointmentDate.Before(monthStart) || d.AppointmentDate.After(maxDate) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *memAppointments) AssignedCounts(_ context.Context, office, dateField string, start, endExclusive time.Time) ([]store.UserCount, error) {
	counts := map[string]int{}
	for _, d := range m.docs {
		if d.OfficeName != office || d.Status != models.StatusAssigned {
			continue
		}
		if t := fieldDate(d, dateField); t == nil || t.Before(start) || !t.Before(endExclusive) {
			continue
		}
		counts[d.AssignedUser]++
	}
	var out []store.UserCount
	for u, n := range counts {
		out = append(out, store.UserCount{UserID: u, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (m *memAppointments) CompletionCountByUser(_ context.Context, userID, dateField string, start, endExclusive time.Time) (int64, error) {
	var n int64
	for _, d := range m.docs {
		if d.AssignedUser != userID || d.CompletionStatus != models.CompletionCompleted {
			continue
		}
		if t := fieldDate(d, dateField); t == nil || t.Before(start) || !t.Before(endExclusive) {
			continue
		}
		n++
	}
	return n, nil
}

func (m *memAppointments) CompletionAnalysis(_ context.Context, office, dateField string, start, endExclusive time.Time) ([]store.StatusCount, error) {
	counts := map[string]int{}
	for _, d := range m.docs {
		if d.OfficeName != office {
			continue
		}
		if t := fieldDate(d, dateField); t == nil || t.Before(start) || !t.Before(endExclusive) {
			continue
		}
		counts[d.CompletionStatus]++
	}
	var out []store.StatusCount
	for s, n := range counts {
		out = append(out, store.StatusCount{CompletionStatus: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (m *memAppointments) Aggregate(_ context.Context, pipeline []bson.M) ([]bson.M, error) {
	if err := store.ValidatePipeline(pipeline); err != nil {
		return nil, err
	}
	return []bson.M{}, nil
}

func (m *memAppointments) byID(id primitive.ObjectID) *models.Appointment {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i]
		}
	}
	return nil
}

func fieldDate(d models.Appointment, field string) *time.Time {
	switch field {
	case "appointmentDate":
		return &d.AppointmentDate
	case "ivAssignedDate":
		return d.IVAssignedDate
	case "ivCompletedDate":
		return d.IVCompletedDate
	}
	return nil
}

func applySet(appt *models.Appointment, set bson.M) {
	for k, v := range set {
		switch k {
		case "status":
			appt.Status, _ = v.(string)
		case "completionStatus":
			appt.CompletionStatus, _ = v.(string)
		case "assignedUser":
			appt.AssignedUser, _ = v.(string)
		case "ivAssignedByUserName":
			appt.IVAssignedByUserName, _ = v.(string)
		case "ivRemarks":
			appt.IVRemarks, _ = v.(string)
		case "noteRemarks":
			appt.NoteRemarks, _ = v.(string)
		case "completedBy":
			appt.CompletedBy, _ = v.(string)
		case "ivAssignedDate":
			if t, ok := v.(time.Time); ok {
				appt.IVAssignedDate = &t
			}
		case "ivCompletedDate":
			if t, ok := v.(time.Time); ok {
				appt.IVCompletedDate = &t
			}
		case "lastUpdatedAt":
			if t, ok := v.(time.Time); ok {
				appt.LastUpdatedAt = &t
			}
		}
	}
}

// fakeSource serves fixed rows per office sheet and can fail per sheet.
type fakeSource struct {
	rows map[string][]source.RawRow
	errs map[string]error
}

func (f *fakeSource) FetchRows(_ context.Context, officeSheet string) ([]source.RawRow, error) {
	if err := f.errs[officeSheet]; err != nil {
		return nil, err
	}
	return f.rows[officeSheet], nil
}

type memFetchLog struct {
	entries map[string][]models.FetchOperation
}

func (m *memFetchLog) AppendOperation(_ context.Context, date string, op models.FetchOperation) error {
	if m.entries == nil {
		m.entries = map[string][]models.FetchOperation{}
	}
	m.entries[date] = append(m.entries[date], op)
	return nil
}

type staticOffices struct {
	offices []models.Office
}

func (s *staticOffices) FindActive(_ context.Context) ([]models.Office, error) {
	return s.offices, nil
}

// memAttendance records upserts and serves ranges, mirroring the merge-patch
// semantics of the mongo update document.
type memAttendance struct {
	recs    []models.AttendanceRecord
	upserts []store.AttendanceUpsert
}

func (m *memAttendance) Upsert(_ context.Context, in store.AttendanceUpsert) error {
	m.upserts = append(m.upserts, in)
	for i := range m.recs {
		r := &m.recs[i]
		if r.UserID != in.UserID || r.Date != in.Date {
			continue
		}
		r.Attendance = in.Attendance
		if in.AssignedCount != nil || in.AssignedAppointmentIDs != nil {
			if r.Assigned == nil {
				r.Assigned = &models.AssignedWork{}
			}
			if in.AssignedCount != nil {
				r.Assigned.Count = *in.AssignedCount
			}
			if in.AssignedAppointmentIDs != nil {
				r.Assigned.AppointmentIDs = in.AssignedAppointmentIDs
			}
		}
		return nil
	}

	rec := models.AttendanceRecord{
		ID:         primitive.NewObjectID(),
		UserID:     in.UserID,
		Date:       in.Date,
		Attendance: in.Attendance,
	}
	if in.AssignedCount != nil || in.AssignedAppointmentIDs != nil {
		rec.Assigned = &models.AssignedWork{}
		if in.AssignedCount != nil {
			rec.Assigned.Count = *in.AssignedCount
		}
		if in.AssignedAppointmentIDs != nil {
			rec.Assigned.AppointmentIDs = in.AssignedAppointmentIDs
		}
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memAttendance) FindRange(_ context.Context, userID, startDate, endDate string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.recs {
		if r.UserID == userID && r.Date >= startDate && r.Date <= endDate {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memAttendance) Summary(_ context.Context, startDate, endDate string) ([]models.AttendanceSummaryRow, error) {
	byUser := map[string]*models.AttendanceSummaryRow{}
	for _, r := range m.recs {
		if r.Date < startDate || r.Date > endDate {
			continue
		}
		row, ok := byUser[r.UserID]
		if !ok {
			row = &models.AttendanceSummaryRow{UserID: r.UserID}
			byUser[r.UserID] = row
		}
		switch r.Attendance {
		case models.AttendancePresent:
			row.PresentDays++
		case models.AttendanceAbsent:
			row.AbsentDays++
		case models.AttendanceHalf:
			row.HalfDays++
		}
		if r.Assigned != nil {
			row.TotalAssigned += r.Assigned.Count
		}
	}
	var out []models.AttendanceSummaryRow
	for _, row := range byUser {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type staticUsers struct {
	users []models.User
}

func (s *staticUsers) FindActiveAgents(_ context.Context) ([]models.User, error) {
	return s.users, nil
}
