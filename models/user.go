package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a volunteer account. It is created on the first auth-provider
// callback and updated on every subsequent login. uid comes from the external
// provider; userId is our own sequential identifier.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID       string             `bson:"userId" json:"userId"`
	UID          string             `bson:"uid" json:"uid"`
	Email        string             `bson:"email" json:"email"`
	DisplayName  string             `bson:"displayName" json:"displayName"`
	PhotoURL     string             `bson:"photoURL" json:"photoURL"`
	AuthProvider string             `bson:"authProvider" json:"authProvider"`
	Phone        string             `bson:"phone" json:"phone"`
	Location     string             `bson:"location" json:"location"`

	// Event membership, mirrored on the event documents.
	MyEvents     []string `bson:"myEvents" json:"myEvents"`
	JoinedEvents []string `bson:"joinedEvents" json:"joinedEvents"`

	TotalEventsCreated int `bson:"totalEventsCreated" json:"totalEventsCreated"`
	TotalEventsJoined  int `bson:"totalEventsJoined" json:"totalEventsJoined"`
	TotalPoints        int `bson:"totalPoints" json:"totalPoints"`

	JoinedAt  time.Time `bson:"joinedAt" json:"joinedAt"`
	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
