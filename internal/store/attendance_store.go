package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
)

type AttendanceStore struct {
	col *mongo.Collection
}

func NewAttendanceStore(db *mongo.Database) *AttendanceStore {
	return &AttendanceStore{col: db.Collection("attendance")}
}

// AttendanceUpsert is a merge-patch against the (userId, date) record. Nil
// sub-fields of assigned leave the stored value untouched.
type AttendanceUpsert struct {
	UserID                 string
	Date                   string
	Attendance             string
	AssignedCount          *int
	AssignedAppointmentIDs []string
}

// buildAttendanceUpdate turns the merge-patch into a mongo update document.
// Dotted paths under "assigned" are what make the merge preserve whichever
// sub-field the caller did not supply.
func buildAttendanceUpdate(in AttendanceUpsert) bson.M {
	set := bson.M{
		"attendance": in.Attendance,
	}
	if in.AssignedCount != nil {
		set["assigned.count"] = *in.AssignedCount
	}
	if in.AssignedAppointmentIDs != nil {
		set["assigned.appointmentIds"] = in.AssignedAppointmentIDs
	}
	return bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"userId": in.UserID,
			"date":   in.Date,
		},
	}
}

// Upsert creates or merge-patches the one record per user per calendar day.
func (s *AttendanceStore) Upsert(ctx context.Context, in AttendanceUpsert) error {
	filter := bson.M{"userId": in.UserID, "date": in.Date}
	_, err := s.col.UpdateOne(ctx, filter, buildAttendanceUpdate(in), options.Update().SetUpsert(true))
	if err != nil {
		return apperrors.NewPersistence("attendance.upsert", err)
	}
	return nil
}

// FindRange returns a user's records with date inside [startDate, endDate],
// both inclusive. Dates are "2006-01-02" strings, so lexical order is
// chronological order.
func (s *AttendanceStore) FindRange(ctx context.Context, userID, startDate, endDate string) ([]models.AttendanceRecord, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": startDate, "$lte": endDate},
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, apperrors.NewPersistence("attendance.findRange", err)
	}
	defer cursor.Close(ctx)

	var recs []models.AttendanceRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, apperrors.NewPersistence("attendance.findRange", err)
	}
	return recs, nil
}

// Summary groups the range by user, buckets Present/Absent/Half day counts and
// joins display fields from the users collection.
func (s *AttendanceStore) Summary(ctx context.Context, startDate, endDate string) ([]models.AttendanceSummaryRow, error) {
	countFor := func(value string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$attendance", value}}, 1, 0,
		}}}
	}

	pipeline := []bson.M{
		{"$match": bson.M{"date": bson.M{"$gte": startDate, "$lte": endDate}}},
		{"$group": bson.M{
			"_id":           "$userId",
			"presentDays":   countFor(models.AttendancePresent),
			"absentDays":    countFor(models.AttendanceAbsent),
			"halfDays":      countFor(models.AttendanceHalf),
			"totalAssigned": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$assigned.count", 0}}},
		}},
		{"$lookup": bson.M{
			"from": "users",
			"let":  bson.M{"uid": bson.M{"$toObjectId": "$_id"}},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$uid"}}}},
			},
			"as": "user",
		}},
		{"$unwind": bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}},
		{"$addFields": bson.M{
			"fullName": "$user.fullName",
			"email":    "$user.email",
		}},
		{"$project": bson.M{"user": 0}},
		{"$sort": bson.M{"fullName": 1}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.NewPersistence("attendance.summary", err)
	}
	defer cursor.Close(ctx)

	var rows []models.AttendanceSummaryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, apperrors.NewPersistence("attendance.summary", err)
	}
	return rows, nil
}
