package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/models"
)

// UserStore reads and writes the users collection. From the core's point of
// view users are reference data; only auth registers new ones.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, user); err != nil {
		return apperrors.NewPersistence("users.insert", err)
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("user", email)
		}
		return nil, apperrors.NewPersistence("users.findByEmail", err)
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("user", id.Hex())
		}
		return nil, apperrors.NewPersistence("users.findById", err)
	}
	return &user, nil
}

// FindActiveAgents lists the users appointments can be assigned to.
func (s *UserStore) FindActiveAgents(ctx context.Context) ([]models.User, error) {
	filter := bson.M{"active": true, "role": "agent"}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "fullName", Value: 1}}))
	if err != nil {
		return nil, apperrors.NewPersistence("users.findActiveAgents", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.NewPersistence("users.findActiveAgents", err)
	}
	return users, nil
}

// OfficeStore reads the offices reference collection.
type OfficeStore struct {
	col *mongo.Collection
}

func NewOfficeStore(db *mongo.Database) *OfficeStore {
	return &OfficeStore{col: db.Collection("offices")}
}

// FindActive lists the offices whose feeds the ingestion run should pull.
func (s *OfficeStore) FindActive(ctx context.Context) ([]models.Office, error) {
	cursor, err := s.col.Find(ctx, bson.M{"active": true}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperrors.NewPersistence("offices.findActive", err)
	}
	defer cursor.Close(ctx)

	var offices []models.Office
	if err := cursor.All(ctx, &offices); err != nil {
		return nil, apperrors.NewPersistence("offices.findActive", err)
	}
	return offices, nil
}
