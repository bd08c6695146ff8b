package models

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription stores one browser push subscription per uid.
type PushSubscription struct {
	ID  primitive.ObjectID   `bson:"_id,omitempty" json:"_id,omitempty"`
	UID string               `bson:"uid" json:"uid"`
	Sub webpush.Subscription `bson:"sub" json:"sub"`
}
