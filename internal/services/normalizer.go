package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/source"
)

// Positional columns of a source row. Everything past the last known column is
// preserved in extras.
const (
	colDateTime = iota
	colPatientID
	colPatientName
	colPatientDOB
	colInsuranceName
	colMemberID
	colMedicaidID
	colCarrierID
	colPolicyHolderName
	colPolicyHolderDOB
	colRelation
	colEmployerName
	colGroupNumber
	colPatientPhone
	colProvider
	colSource
	colPlanType
	colCount
)

// Layouts tried against the combined date-time column, in order. The last one
// is date-only; such rows get an empty appointment time.
var dateTimeLayouts = []string{
	"01/02/2006 03:04 PM",
	"01/02/2006 15:04",
	"2006-01-02 15:04",
	"01/02/2006",
}

// Normalizer maps a raw source row into the canonical Appointment shape. All
// derived instants are taken in the business timezone so every record of one
// run shares a comparable "requested" time.
type Normalizer struct {
	loc *time.Location
}

func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{loc: loc}
}

// Normalize builds an Appointment from one row. requestedAt is the shared
// per-run ingestion instant. A missing identity field or an unparseable date
// rejects the row; the office's run continues.
func (n *Normalizer) Normalize(row source.RawRow, office string, requestedAt time.Time) (*models.Appointment, error) {
	patientID := cell(row, colPatientID)
	insurance := cell(row, colInsuranceName)
	if patientID == "" {
		return nil, apperrors.NewValidation("missing patient id")
	}
	if insurance == "" {
		return nil, apperrors.NewValidation("missing insurance name")
	}

	date, timeOfDay, err := n.splitDateTime(cell(row, colDateTime))
	if err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		OfficeName:       office,
		PatientID:        patientID,
		PatientName:      cell(row, colPatientName),
		PatientDOB:       cell(row, colPatientDOB),
		AppointmentDate:  date,
		AppointmentTime:  timeOfDay,
		InsuranceName:    insurance,
		MemberID:         cell(row, colMemberID),
		MedicaidID:       cell(row, colMedicaidID),
		CarrierID:        cell(row, colCarrierID),
		PolicyHolderName: cell(row, colPolicyHolderName),
		PolicyHolderDOB:  cell(row, colPolicyHolderDOB),
		Relation:         cell(row, colRelation),
		EmployerName:     cell(row, colEmployerName),
		GroupNumber:      cell(row, colGroupNumber),
		PatientPhone:     cell(row, colPatientPhone),
		Provider:         cell(row, colProvider),
		Source:           cell(row, colSource),
		PlanType:         cell(row, colPlanType),
		IVType:           models.IVTypeNormal,
		Status:           models.StatusUnassigned,
		CompletionStatus: models.CompletionNotDone,
		IVRequestedDate:  requestedAt,
	}

	// Unknown trailing columns pass through untouched.
	for i := colCount; i < len(row); i++ {
		if row[i] == "" {
			continue
		}
		if appt.Extras == nil {
			appt.Extras = make(map[string]string)
		}
		appt.Extras[fmt.Sprintf("col%d", i)] = row[i]
	}

	return appt, nil
}

// splitDateTime separates the combined source field into a day-granular date
// in the business timezone and a display time string.
func (n *Normalizer) splitDateTime(raw string) (time.Time, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, "", apperrors.NewValidation("missing appointment date")
	}

	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, n.loc)
		if err != nil {
			continue
		}
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, n.loc)
		timeOfDay := ""
		if layout != "01/02/2006" {
			timeOfDay = t.Format("03:04 PM")
		}
		return date, timeOfDay, nil
	}
	return time.Time{}, "", apperrors.NewValidation("unparseable appointment date %q", raw)
}

func cell(row source.RawRow, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
