package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
)

// AppointmentStore wraps the appointments collection. There is no schema-level
// unique index on the dedup key; ingestion's existence check is the contract.
type AppointmentStore struct {
	col *mongo.Collection
}

func NewAppointmentStore(db *mongo.Database) *AppointmentStore {
	return &AppointmentStore{col: db.Collection("appointments")}
}

// InsertMany inserts unordered so one bad document does not abort the batch.
// Returns the inserted count and per-item failure messages.
func (s *AppointmentStore) InsertMany(ctx context.Context, appts []models.Appointment) (int, []string, error) {
	if len(appts) == 0 {
		return 0, nil, nil
	}

	docs := make([]interface{}, len(appts))
	for i := range appts {
		docs[i] = appts[i]
	}

	_, err := s.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			itemErrs := make([]string, 0, len(bwe.WriteErrors))
			for _, we := range bwe.WriteErrors {
				itemErrs = append(itemErrs, fmt.Sprintf("insert item %d: %s", we.Index, we.Message))
			}
			return len(appts) - len(bwe.WriteErrors), itemErrs, nil
		}
		return 0, nil, apperrors.NewPersistence("appointments.insertMany", err)
	}
	return len(appts), nil, nil
}

func (s *AppointmentStore) InsertOne(ctx context.Context, appt *models.Appointment) error {
	if appt.ID.IsZero() {
		appt.ID = primitive.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, appt); err != nil {
		return apperrors.NewPersistence("appointments.insertOne", err)
	}
	return nil
}

// ExistsByKey reports whether an appointment with the dedup identity
// (office, patientId, insuranceName) exists with appointmentDate inside
// [dayStart, dayEnd).
func (s *AppointmentStore) ExistsByKey(ctx context.Context, office, patientID, insurance string, dayStart, dayEnd time.Time) (bool, error) {
	filter := bson.M{
		"officeName":      office,
		"patientId":       patientID,
		"insuranceName":   insurance,
		"appointmentDate": bson.M{"$gte": dayStart, "$lt": dayEnd},
	}
	err := s.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, apperrors.NewPersistence("appointments.existsByKey", err)
	}
	return true, nil
}

func (s *AppointmentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("appointment", id.Hex())
		}
		return nil, apperrors.NewPersistence("appointments.findById", err)
	}
	return &appt, nil
}

// FindInRange returns documents matching filter with dateField inside
// [start, endExclusive), sorted ascending by dateField. Callers widen the end
// bound to the next day start so calendar ranges are inclusive of both bounds.
func (s *AppointmentStore) FindInRange(ctx context.Context, filter bson.M, dateField string, start, endExclusive time.Time) ([]models.Appointment, error) {
	full := bson.M{dateField: bson.M{"$gte": start, "$lt": endExclusive}}
	for k, v := range filter {
		full[k] = v
	}

	findOptions := options.Find().SetSort(bson.D{{Key: dateField, Value: 1}})
	cursor, err := s.col.Find(ctx, full, findOptions)
	if err != nil {
		return nil, apperrors.NewPersistence("appointments.findInRange", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, apperrors.NewPersistence("appointments.findInRange", err)
	}
	return appts, nil
}

// UpdateByID applies a $set patch and returns how many documents matched.
func (s *AppointmentStore) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (int64, error) {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return 0, apperrors.NewPersistence("appointments.updateById", err)
	}
	return res.MatchedCount, nil
}

// BulkUpdateEntry is one (id, $set patch) pair of a batched update.
type BulkUpdateEntry struct {
	ID  primitive.ObjectID
	Set bson.M
}

// BulkUpdateResult reports a batched update. ItemErrors is keyed by the entry
// index; entries absent from it were written (or matched nothing, see Matched).
type BulkUpdateResult struct {
	Matched    int64
	Modified   int64
	ItemErrors map[int]string
}

// BulkUpdate applies all entries in one unordered BulkWrite. A failing entry
// never aborts the rest; failures are reported per entry.
func (s *AppointmentStore) BulkUpdate(ctx context.Context, entries []BulkUpdateEntry) (*BulkUpdateResult, error) {
	if len(entries) == 0 {
		return &BulkUpdateResult{ItemErrors: map[int]string{}}, nil
	}

	writes := make([]mongo.WriteModel, len(entries))
	for i, e := range entries {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetUpdate(bson.M{"$set": e.Set})
	}

	out := &BulkUpdateResult{ItemErrors: map[int]string{}}
	res, err := s.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) {
			return nil, apperrors.NewPersistence("appointments.bulkUpdate", err)
		}
		for _, we := range bwe.WriteErrors {
			out.ItemErrors[we.Index] = we.Message
		}
	}
	if res != nil {
		out.Matched = res.MatchedCount
		out.Modified = res.ModifiedCount
	}
	return out, nil
}

// HasCompletedSibling reports whether a different appointment with the same
// (office, patientId, insuranceName) is Completed with appointmentDate in
// [monthStart, maxDate].
func (s *AppointmentStore) HasCompletedSibling(ctx context.Context, office, patientID, insurance string, monthStart, maxDate time.Time, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"officeName":       office,
		"patientId":        patientID,
		"insuranceName":    insurance,
		"completionStatus": models.CompletionCompleted,
		"_id":              bson.M{"$ne": excludeID},
		"appointmentDate":  bson.M{"$gte": monthStart, "$lte": maxDate},
	}
	err := s.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, apperrors.NewPersistence("appointments.hasCompletedSibling", err)
	}
	return true, nil
}

// UserCount is one assignedUser bucket of an assigned-counts grouping.
type UserCount struct {
	UserID string `bson:"_id" json:"userId"`
	Count  int    `bson:"count" json:"count"`
}

// StatusCount is one completionStatus bucket of a completion analysis.
type StatusCount struct {
	CompletionStatus string `bson:"_id" json:"completionStatus"`
	Count            int    `bson:"count" json:"count"`
}

func (s *AppointmentStore) AssignedCounts(ctx context.Context, office, dateField string, start, endExclusive time.Time) ([]UserCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"officeName": office,
			"status":     models.StatusAssigned,
			dateField:    bson.M{"$gte": start, "$lt": endExclusive},
		}},
		{"$group": bson.M{"_id": "$assignedUser", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.NewPersistence("appointments.assignedCounts", err)
	}
	defer cursor.Close(ctx)

	var counts []UserCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, apperrors.NewPersistence("appointments.assignedCounts", err)
	}
	return counts, nil
}

func (s *AppointmentStore) CompletionCountByUser(ctx context.Context, userID, dateField string, start, endExclusive time.Time) (int64, error) {
	filter := bson.M{
		"assignedUser":     userID,
		"completionStatus": models.CompletionCompleted,
		dateField:          bson.M{"$gte": start, "$lt": endExclusive},
	}
	n, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, apperrors.NewPersistence("appointments.completionCountByUser", err)
	}
	return n, nil
}

func (s *AppointmentStore) CompletionAnalysis(ctx context.Context, office, dateField string, start, endExclusive time.Time) ([]StatusCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"officeName": office,
			dateField:    bson.M{"$gte": start, "$lt": endExclusive},
		}},
		{"$group": bson.M{"_id": "$completionStatus", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.NewPersistence("appointments.completionAnalysis", err)
	}
	defer cursor.Close(ctx)

	var counts []StatusCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, apperrors.NewPersistence("appointments.completionAnalysis", err)
	}
	return counts, nil
}

// Aggregate runs an ad-hoc read-only pipeline after validating its shape.
func (s *AppointmentStore) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	if err := ValidatePipeline(pipeline); err != nil {
		return nil, err
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.NewPersistence("appointments.aggregate", err)
	}
	defer cursor.Close(ctx)

	var out []bson.M
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperrors.NewPersistence("appointments.aggregate", err)
	}
	return out, nil
}
