package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FetchLog is one document per calendar date. Operations are appended with
// $push, never overwritten.
type FetchLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date       string             `bson:"date" json:"date"` // "2006-01-02" in the business timezone
	Operations []FetchOperation   `bson:"operations" json:"operations"`
}

// FetchOperation records one ingestion run's outcome across all offices.
type FetchOperation struct {
	OperationID string              `bson:"operationId" json:"operationId"`
	Timestamp   time.Time           `bson:"timestamp" json:"timestamp"`
	Offices     []OfficeFetchResult `bson:"offices" json:"offices"`
}

// OfficeFetchResult is the per-office outcome: how many rows came back from the
// source, how many were genuinely new, and how many were discarded as
// already-known (archived).
type OfficeFetchResult struct {
	Office   string               `bson:"office" json:"office"`
	Fetched  int                  `bson:"fetched" json:"fetched"`
	New      int                  `bson:"new" json:"new"`
	Archived int                  `bson:"archived" json:"archived"`
	Errors   []string             `bson:"errors,omitempty" json:"errors,omitempty"`
	NewItems []AppointmentSummary `bson:"newItems,omitempty" json:"newItems,omitempty"`
}

// AppointmentSummary is the short form kept in the fetch log.
type AppointmentSummary struct {
	PatientID       string    `bson:"patientId" json:"patientId"`
	PatientName     string    `bson:"patientName" json:"patientName"`
	InsuranceName   string    `bson:"insuranceName" json:"insuranceName"`
	AppointmentDate time.Time `bson:"appointmentDate" json:"appointmentDate"`
	AppointmentTime string    `bson:"appointmentTime" json:"appointmentTime"`
}
