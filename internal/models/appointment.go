package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IV type values.
const (
	IVTypeNormal = "Normal"
	IVTypeRush   = "Rush"
)

// Assignment status values.
const (
	StatusUnassigned = "Unassigned"
	StatusAssigned   = "Assigned"
)

// Completion status values. Free-form remark states (e.g. "Patient Cancelled")
// are also accepted; these two are the ones the engine reasons about.
const (
	CompletionNotDone   = "IV Not Done"
	CompletionCompleted = "Completed"
)

// Appointment is one insurance-verification work item. The identity key is
// (officeName, patientId, insuranceName, appointmentDate truncated to day);
// dedup at ingestion time is the only thing enforcing it.
type Appointment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OfficeName      string             `bson:"officeName" json:"officeName"`
	PatientID       string             `bson:"patientId" json:"patientId"`
	PatientName     string             `bson:"patientName" json:"patientName"`
	PatientDOB      string             `bson:"patientDob,omitempty" json:"patientDob,omitempty"`
	AppointmentDate time.Time          `bson:"appointmentDate" json:"appointmentDate"`
	AppointmentTime string             `bson:"appointmentTime" json:"appointmentTime"`

	InsuranceName    string `bson:"insuranceName" json:"insuranceName"`
	MemberID         string `bson:"memberId,omitempty" json:"memberId,omitempty"`
	MedicaidID       string `bson:"medicaidId,omitempty" json:"medicaidId,omitempty"`
	CarrierID        string `bson:"carrierId,omitempty" json:"carrierId,omitempty"`
	PolicyHolderName string `bson:"policyHolderName,omitempty" json:"policyHolderName,omitempty"`
	PolicyHolderDOB  string `bson:"policyHolderDob,omitempty" json:"policyHolderDob,omitempty"`
	Relation         string `bson:"relationWithPatient,omitempty" json:"relationWithPatient,omitempty"`
	EmployerName     string `bson:"employerName,omitempty" json:"employerName,omitempty"`
	GroupNumber      string `bson:"groupNumber,omitempty" json:"groupNumber,omitempty"`
	PatientPhone     string `bson:"patientPhone,omitempty" json:"patientPhone,omitempty"`

	IVType           string `bson:"ivType" json:"ivType"`
	Status           string `bson:"status" json:"status"`
	CompletionStatus string `bson:"completionStatus" json:"completionStatus"`
	// AssignedUser is a weak reference: the hex ObjectID of a user, looked up
	// on demand, never embedded.
	AssignedUser string `bson:"assignedUser,omitempty" json:"assignedUser,omitempty"`
	Provider     string `bson:"provider,omitempty" json:"provider,omitempty"`

	IVRequestedDate      time.Time  `bson:"ivRequestedDate" json:"ivRequestedDate"`
	IVAssignedDate       *time.Time `bson:"ivAssignedDate,omitempty" json:"ivAssignedDate,omitempty"`
	IVCompletedDate      *time.Time `bson:"ivCompletedDate,omitempty" json:"ivCompletedDate,omitempty"`
	IVAssignedByUserName string     `bson:"ivAssignedByUserName,omitempty" json:"ivAssignedByUserName,omitempty"`
	LastUpdatedAt        *time.Time `bson:"lastUpdatedAt,omitempty" json:"lastUpdatedAt,omitempty"`

	IVRemarks   string `bson:"ivRemarks,omitempty" json:"ivRemarks,omitempty"`
	NoteRemarks string `bson:"noteRemarks,omitempty" json:"noteRemarks,omitempty"`
	Source      string `bson:"source,omitempty" json:"source,omitempty"`
	PlanType    string `bson:"planType,omitempty" json:"planType,omitempty"`
	CompletedBy string `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	ImageURL    string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`

	// Extras holds source columns the normalizer does not recognize. They pass
	// through untouched.
	Extras map[string]string `bson:"extras,omitempty" json:"extras,omitempty"`
}

// AnnotatedAppointment is an Appointment plus read-time enrichment. The flag is
// computed per listing, never persisted.
type AnnotatedAppointment struct {
	Appointment           `bson:",inline"`
	IsPreviouslyCompleted bool `json:"isPreviouslyCompleted"`
}
