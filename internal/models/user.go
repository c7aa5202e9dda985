package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"fullName" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"` // Hide from JSON responses
	Role     string             `bson:"role" json:"role"`  // "admin" or "agent"
	Active   bool               `bson:"active" json:"active"`
}

// Office is read-only reference data: one clinic whose appointment feed is
// ingested independently.
type Office struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	SheetName string             `bson:"sheetName" json:"sheetName"` // tab in the source spreadsheet
	Active    bool               `bson:"active" json:"active"`
}
