package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sebasongjog/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UpsertUserInput carries the auth-provider callback payload.
type UpsertUserInput struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	AuthProvider string
}

// UpsertUser creates a user on first login and refreshes the login fields on
// every subsequent one. The bool result reports whether a new document was
// created. A lost race against a concurrent first registration surfaces as a
// duplicate-key error on the unique uid index and is retried as an update.
func (db *DB) UpsertUser(ctx context.Context, in UpsertUserInput) (*models.User, bool, error) {
	existing, err := db.GetUserByUID(ctx, in.UID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}
	if existing != nil {
		return db.refreshUser(ctx, existing, in)
	}

	seq, err := db.NextSequence(ctx, "users")
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		UserID:       FormatUserID(seq),
		UID:          in.UID,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PhotoURL:     in.PhotoURL,
		AuthProvider: in.AuthProvider,
		MyEvents:     []string{},
		JoinedEvents: []string{},
		JoinedAt:     now,
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.AuthProvider == "" {
		user.AuthProvider = "email"
	}

	_, err = db.Users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		// Another request registered this uid first; fall back to update.
		existing, gerr := db.GetUserByUID(ctx, in.UID)
		if gerr != nil {
			return nil, false, gerr
		}
		return db.refreshUser(ctx, existing, in)
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}
	return user, true, nil
}

func (db *DB) refreshUser(ctx context.Context, user *models.User, in UpsertUserInput) (*models.User, bool, error) {
	now := time.Now().UTC()
	set := bson.M{
		"email":     in.Email,
		"lastLogin": now,
		"updatedAt": now,
	}
	if in.DisplayName != "" {
		set["displayName"] = in.DisplayName
	}
	if in.PhotoURL != "" {
		set["photoURL"] = in.PhotoURL
	}

	_, err := db.Users.UpdateOne(ctx, bson.M{"uid": user.UID}, bson.M{"$set": set})
	if err != nil {
		return nil, false, fmt.Errorf("refresh user %s: %w", user.UID, err)
	}

	user.Email = in.Email
	if in.DisplayName != "" {
		user.DisplayName = in.DisplayName
	}
	if in.PhotoURL != "" {
		user.PhotoURL = in.PhotoURL
	}
	user.LastLogin = now
	user.UpdatedAt = now
	return user, false, nil
}

func (db *DB) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := db.Users.FindOne(ctx, bson.M{"uid": uid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by uid: %w", err)
	}
	return &user, nil
}

func (db *DB) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := db.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ProfileUpdate holds the mutable profile fields. Pointers distinguish "not
// sent" from an intentional empty value. Identity and counter fields cannot
// be changed through this path.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Phone       *string `json:"phone"`
	Location    *string `json:"location"`
}

func (db *DB) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.DisplayName != nil {
		set["displayName"] = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		set["photoURL"] = *upd.PhotoURL
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}

	res, err := db.Users.UpdateOne(ctx, bson.M{"uid": uid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update profile %s: %w", uid, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// addEventRef adds eventID to the named list field and bumps its counter,
// but only when the id is not already present, so the counter never drifts
// from the set. Adding an id that is already there is a no-op; the bool
// reports whether the list actually changed.
func (db *DB) addEventRef(ctx context.Context, uid, eventID, field, counter string) (bool, error) {
	res, err := db.Users.UpdateOne(ctx,
		bson.M{"uid": uid, field: bson.M{"$ne": eventID}},
		bson.M{
			"$addToSet": bson.M{field: eventID},
			"$inc":      bson.M{counter: 1},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("add %s ref for %s: %w", field, uid, err)
	}
	if res.MatchedCount == 0 {
		return false, db.classifyRefMiss(ctx, uid)
	}
	return true, nil
}

// removeEventRef is the inverse of addEventRef; removing an id that is not
// in the list is a no-op and reports false.
func (db *DB) removeEventRef(ctx context.Context, uid, eventID, field, counter string) (bool, error) {
	res, err := db.Users.UpdateOne(ctx,
		bson.M{"uid": uid, field: eventID},
		bson.M{
			"$pull": bson.M{field: eventID},
			"$inc":  bson.M{counter: -1},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("remove %s ref for %s: %w", field, uid, err)
	}
	if res.MatchedCount == 0 {
		return false, db.classifyRefMiss(ctx, uid)
	}
	return true, nil
}

// classifyRefMiss distinguishes "unknown user" from "list already in the
// requested state" after a guarded update matched nothing.
func (db *DB) classifyRefMiss(ctx context.Context, uid string) error {
	n, err := db.Users.CountDocuments(ctx, bson.M{"uid": uid})
	if err != nil {
		return fmt.Errorf("check user %s: %w", uid, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (db *DB) AddOwnedEvent(ctx context.Context, uid, eventID string) error {
	_, err := db.addEventRef(ctx, uid, eventID, "myEvents", "totalEventsCreated")
	return err
}

func (db *DB) RemoveOwnedEvent(ctx context.Context, uid, eventID string) error {
	_, err := db.removeEventRef(ctx, uid, eventID, "myEvents", "totalEventsCreated")
	return err
}

func (db *DB) AddJoinedEvent(ctx context.Context, uid, eventID string) error {
	_, err := db.addEventRef(ctx, uid, eventID, "joinedEvents", "totalEventsJoined")
	return err
}

func (db *DB) RemoveJoinedEvent(ctx context.Context, uid, eventID string) error {
	_, err := db.removeEventRef(ctx, uid, eventID, "joinedEvents", "totalEventsJoined")
	return err
}
