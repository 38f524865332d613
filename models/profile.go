// models/profile.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the minimal record created once a signup completes
type Profile struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProfileID string             `json:"profileId,omitempty" bson:"profileId,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Email     string             `json:"email,omitempty" bson:"email,omitempty"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	Role      UserRole           `json:"role" bson:"role"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateProfileRequest is the body of the profile creation endpoint
type CreateProfileRequest struct {
	UserID    string   `json:"userId" validate:"required"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      UserRole `json:"role" validate:"required"`
	Phone     string   `json:"phone,omitempty"`
}
