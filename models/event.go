package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

type Contact struct {
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Website string `bson:"website" json:"website"`
}

type Impact struct {
	WasteCollected       string `bson:"wasteCollected" json:"wasteCollected"`
	AreaCleaned          string `bson:"areaCleaned" json:"areaCleaned"`
	PreviousParticipants string `bson:"previousParticipants" json:"previousParticipants"`
}

// Volunteer is one entry in an event's roster.
type Volunteer struct {
	UserID    string    `bson:"userId" json:"userId"`
	UserEmail string    `bson:"userEmail" json:"userEmail"`
	UserName  string    `bson:"userName" json:"userName"`
	JoinedAt  time.Time `bson:"joinedAt" json:"joinedAt"`
}

// Event is a volunteering activity with capacity, ownership and a roster.
// Volunteers must always equal len(VolunteerList); the membership updates in
// the database package enforce this with single-document guarded writes.
type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	EventID      string             `bson:"eventId" json:"eventId"`
	Title        string             `bson:"title" json:"title"`
	Organization string             `bson:"organization" json:"organization"`
	Organizer    string             `bson:"organizer" json:"organizer"`
	Date         string             `bson:"date" json:"date"`
	Time         string             `bson:"time" json:"time"`
	EndTime      string             `bson:"endTime" json:"endTime"`
	Location     string             `bson:"location" json:"location"`
	Coordinates  Coordinates        `bson:"coordinates" json:"coordinates"`
	Category     string             `bson:"category" json:"category"`

	Volunteers    int `bson:"volunteers" json:"volunteers"`
	MaxVolunteers int `bson:"maxVolunteers" json:"maxVolunteers"`

	Description     string   `bson:"description" json:"description"`
	FullDescription string   `bson:"fullDescription" json:"fullDescription"`
	Requirements    []string `bson:"requirements" json:"requirements"`
	Images          []string `bson:"images" json:"images"`
	Contact         Contact  `bson:"contact" json:"contact"`

	Verified       bool    `bson:"verified" json:"verified"`
	Rating         float64 `bson:"rating" json:"rating"`
	Reviews        int     `bson:"reviews" json:"reviews"`
	Impact         Impact  `bson:"impact" json:"impact"`
	LiveAttendance int     `bson:"liveAttendance" json:"liveAttendance"`
	Points         int     `bson:"points" json:"points"`
	IsRecurring    bool    `bson:"isRecurring" json:"isRecurring"`
	Recurrence     string  `bson:"recurrence" json:"recurrence"`

	OwnerID    string `bson:"ownerId" json:"ownerId"`
	OwnerEmail string `bson:"ownerEmail" json:"ownerEmail"`
	OwnerName  string `bson:"ownerName" json:"ownerName"`
	Visibility string `bson:"visibility" json:"visibility"`

	VolunteerList []Volunteer `bson:"volunteerList" json:"volunteerList"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
