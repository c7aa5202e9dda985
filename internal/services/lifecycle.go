package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/store"
)

type appointmentLifecycleStore interface {
	InsertOne(ctx context.Context, appt *models.Appointment) error
	UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (int64, error)
	BulkUpdate(ctx context.Context, entries []store.BulkUpdateEntry) (*store.BulkUpdateResult, error)
}

// Assignment status is a closed enum; completionStatus stays open for
// free-form remark states.
var validStatus = map[string]bool{
	models.StatusUnassigned: true,
	models.StatusAssigned:   true,
}

// Lifecycle mutates the workflow fields of stored appointments. Assignment
// status and completion status are orthogonal axes: completion can move at any
// time after creation regardless of assignment.
type Lifecycle struct {
	appts appointmentLifecycleStore
	loc   *time.Location
}

func NewLifecycle(appts appointmentLifecycleStore, loc *time.Location) *Lifecycle {
	return &Lifecycle{appts: appts, loc: loc}
}

// AssignInput carries the assignment action. AssignedDate is "2006-01-02";
// empty means today.
type AssignInput struct {
	AppointmentID      string `json:"appointmentId"`
	UserID             string `json:"userId"`
	Status             string `json:"status"`
	CompletionStatus   string `json:"completionStatus"`
	AssignedDate       string `json:"assignedDate"`
	AssignedByUserName string `json:"assignedByUserName"`
}

func (s *Lifecycle) Assign(ctx context.Context, in AssignInput) error {
	id, err := primitive.ObjectIDFromHex(in.AppointmentID)
	if err != nil {
		return apperrors.NewValidation("invalid appointment id %q", in.AppointmentID)
	}
	if in.UserID == "" {
		return apperrors.NewValidation("userId is required")
	}

	now := time.Now().In(s.loc)
	assignedDate := now
	if in.AssignedDate != "" {
		d, err := time.ParseInLocation("2006-01-02", in.AssignedDate, s.loc)
		if err != nil {
			return apperrors.NewValidation("invalid assignedDate %q", in.AssignedDate)
		}
		assignedDate = d
	}

	status := in.Status
	if status == "" {
		status = models.StatusAssigned
	}
	if !validStatus[status] {
		return apperrors.NewValidation("unknown status %q", in.Status)
	}

	set := bson.M{
		"assignedUser":   in.UserID,
		"status":         status,
		"ivAssignedDate": assignedDate,
		"lastUpdatedAt":  now,
	}
	if in.CompletionStatus != "" {
		set["completionStatus"] = in.CompletionStatus
	}
	if in.AssignedByUserName != "" {
		set["ivAssignedByUserName"] = in.AssignedByUserName
	}

	matched, err := s.appts.UpdateByID(ctx, id, set)
	if err != nil {
		return err
	}
	if matched == 0 {
		return apperrors.NewNotFound("appointment", in.AppointmentID)
	}
	return nil
}

// CreateRush stores a manually created out-of-band appointment. The three
// workflow fields are forced regardless of what the caller supplied.
func (s *Lifecycle) CreateRush(ctx context.Context, office string, data models.Appointment) (*models.Appointment, error) {
	if office == "" {
		return nil, apperrors.NewValidation("office is required")
	}
	if data.PatientID == "" {
		return nil, apperrors.NewValidation("patientId is required")
	}
	if data.InsuranceName == "" {
		return nil, apperrors.NewValidation("insuranceName is required")
	}
	if data.AppointmentDate.IsZero() {
		return nil, apperrors.NewValidation("appointmentDate is required")
	}

	now := time.Now().In(s.loc)
	data.ID = primitive.NewObjectID()
	data.OfficeName = office
	data.IVType = models.IVTypeRush
	data.Status = models.StatusUnassigned
	data.CompletionStatus = models.CompletionNotDone
	data.IVRequestedDate = now
	data.IVAssignedDate = nil
	data.IVCompletedDate = nil
	data.AssignedUser = ""

	if err := s.appts.InsertOne(ctx, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Identity and audit fields no detail patch may touch.
var immutableDetailFields = map[string]bool{
	"_id":             true,
	"id":              true,
	"ivRequestedDate": true,
	"lastUpdatedAt":   true,
}

// buildDetailSet applies the single-document update rule to a free-form patch:
// setting completionStatus to Completed stamps ivCompletedDate to now,
// overriding any caller-supplied value, and lastUpdatedAt is always stamped.
// Moving completionStatus away from Completed never clears an earlier stamp.
func (s *Lifecycle) buildDetailSet(patch map[string]any, now time.Time) (bson.M, error) {
	if len(patch) == 0 {
		return nil, apperrors.NewValidation("no fields to update")
	}

	set := bson.M{}
	for k, v := range patch {
		if immutableDetailFields[k] {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil, apperrors.NewValidation("no updatable fields in patch")
	}

	if cs, ok := set["completionStatus"].(string); ok && cs == models.CompletionCompleted {
		set["ivCompletedDate"] = now
	}
	set["lastUpdatedAt"] = now
	return set, nil
}

func (s *Lifecycle) UpdateDetails(ctx context.Context, appointmentID string, patch map[string]any) error {
	id, err := primitive.ObjectIDFromHex(appointmentID)
	if err != nil {
		return apperrors.NewValidation("invalid appointment id %q", appointmentID)
	}

	set, err := s.buildDetailSet(patch, time.Now().In(s.loc))
	if err != nil {
		return err
	}

	matched, err := s.appts.UpdateByID(ctx, id, set)
	if err != nil {
		return err
	}
	if matched == 0 {
		return apperrors.NewNotFound("appointment", appointmentID)
	}
	return nil
}

// DetailUpdate is one entry of a bulk detail update.
type DetailUpdate struct {
	AppointmentID string         `json:"appointmentId"`
	Patch         map[string]any `json:"patch"`
}

// BulkItemOutcome reports one entry of a bulk update. Error is empty on
// success.
type BulkItemOutcome struct {
	AppointmentID string `json:"appointmentId"`
	Error         string `json:"error,omitempty"`
}

// BulkUpdateDetails applies the single-document rule to each entry
// independently in one batched write. Failures are per-entry, never an
// all-or-nothing abort.
func (s *Lifecycle) BulkUpdateDetails(ctx context.Context, updates []DetailUpdate) ([]BulkItemOutcome, error) {
	if len(updates) == 0 {
		return nil, apperrors.NewValidation("no updates supplied")
	}

	now := time.Now().In(s.loc)
	outcomes := make([]BulkItemOutcome, len(updates))
	var entries []store.BulkUpdateEntry
	entryIdx := make([]int, 0, len(updates)) // entry position -> updates position

	for i, u := range updates {
		outcomes[i] = BulkItemOutcome{AppointmentID: u.AppointmentID}

		id, err := primitive.ObjectIDFromHex(u.AppointmentID)
		if err != nil {
			outcomes[i].Error = fmt.Sprintf("invalid appointment id %q", u.AppointmentID)
			continue
		}
		set, err := s.buildDetailSet(u.Patch, now)
		if err != nil {
			outcomes[i].Error = err.Error()
			continue
		}
		entries = append(entries, store.BulkUpdateEntry{ID: id, Set: set})
		entryIdx = append(entryIdx, i)
	}

	if len(entries) > 0 {
		res, err := s.appts.BulkUpdate(ctx, entries)
		if err != nil {
			return nil, err
		}
		for pos, msg := range res.ItemErrors {
			if pos >= 0 && pos < len(entryIdx) {
				outcomes[entryIdx[pos]].Error = msg
			}
		}
	}
	return outcomes, nil
}
