package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Attendance values.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceHalf    = "Half"
)

// AssignedWork balances workload per user per day. AppointmentIDs are opaque
// references; the attendance side never dereferences them.
type AssignedWork struct {
	Count          int      `bson:"count" json:"count"`
	AppointmentIDs []string `bson:"appointmentIds" json:"appointmentIds"`
}

// AttendanceRecord is unique per (userId, date). Date is a calendar day in the
// business timezone, stored as "2006-01-02".
type AttendanceRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"userId"`
	Date       string             `bson:"date" json:"date"`
	Attendance string             `bson:"attendance" json:"attendance"`
	Assigned   *AssignedWork      `bson:"assigned,omitempty" json:"assigned,omitempty"`
}

// AttendanceSummaryRow is one user's bucketed counts over a range, with display
// fields joined from the users collection.
type AttendanceSummaryRow struct {
	UserID        string `bson:"_id" json:"userId"`
	FullName      string `bson:"fullName" json:"fullName"`
	Email         string `bson:"email" json:"email"`
	PresentDays   int    `bson:"presentDays" json:"presentDays"`
	AbsentDays    int    `bson:"absentDays" json:"absentDays"`
	HalfDays      int    `bson:"halfDays" json:"halfDays"`
	TotalAssigned int    `bson:"totalAssigned" json:"totalAssigned"`
}
