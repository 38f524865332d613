package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/revom/revom_backend/models"
)

// ProfileRepository stores the minimal profile records created at the end
// of a signup
type ProfileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(db *mongo.Client, dbName string) *ProfileRepository {
	if dbName == "" {
		dbName = "revom"
	}
	return &ProfileRepository{
		collection: db.Database(dbName).Collection("profiles"),
	}
}

// FindByIdentity returns the profile for a provider identity, or (nil, nil)
// when none exists
func (r *ProfileRepository) FindByIdentity(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Insert stores a new profile record. A concurrent insert for the same
// identity loses to the unique userId index and is treated as success.
func (r *ProfileRepository) Insert(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.ProfileID == "" {
		profile.ProfileID = uuid.New().String()
	}

	_, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}
