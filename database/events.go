package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sebasongjog/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// defaultJoinPoints is credited for joining an event whose points field was
// never configured.
const defaultJoinPoints = 10

// CreateEvent assigns a fresh eventId, inserts the event, and records it on
// the owner's myEvents. If crediting the owner fails the inserted event is
// removed again so no orphan is left behind. An owner uid with no matching
// user document is tolerated.
func (db *DB) CreateEvent(ctx context.Context, ev *models.Event) error {
	seq, err := db.NextSequence(ctx, "events")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ev.ID = primitive.NewObjectID()
	ev.EventID = FormatEventID(seq)
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if ev.VolunteerList == nil {
		ev.VolunteerList = []models.Volunteer{}
	}

	if _, err := db.Events.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	err = db.AddOwnedEvent(ctx, ev.OwnerID, ev.EventID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		// Compensate: drop the event rather than leave an orphan.
		if _, derr := db.Events.DeleteOne(ctx, bson.M{"_id": ev.ID}); derr != nil {
			log.Printf("[CreateEvent] compensation failed for %s: %v", ev.EventID, derr)
		}
		return fmt.Errorf("credit owner %s: %w", ev.OwnerID, err)
	}
	return nil
}

// ListEvents returns events matching filter, newest first.
func (db *DB) ListEvents(ctx context.Context, filter bson.M) ([]models.Event, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := db.Events.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	for cur.Next(ctx) {
		var ev models.Event
		if err := cur.Decode(&ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, ev)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list events cursor: %w", err)
	}
	return events, nil
}

// ListPublicEvents hides events marked private. A non-empty viewerUID unions
// in that uid's own events, so an owner still sees their private ones.
func (db *DB) ListPublicEvents(ctx context.Context, viewerUID string) ([]models.Event, error) {
	filter := bson.M{"visibility": bson.M{"$ne": "private"}}
	if viewerUID != "" {
		filter = bson.M{"$or": bson.A{filter, bson.M{"ownerId": viewerUID}}}
	}
	return db.ListEvents(ctx, filter)
}

// ListEventsByIDs resolves a user's myEvents/joinedEvents id list.
func (db *DB) ListEventsByIDs(ctx context.Context, eventIDs []string) ([]models.Event, error) {
	if len(eventIDs) == 0 {
		return []models.Event{}, nil
	}
	return db.ListEvents(ctx, bson.M{"eventId": bson.M{"$in": eventIDs}})
}

func (db *DB) GetEventByEventID(ctx context.Context, eventID string) (*models.Event, error) {
	return db.getEvent(ctx, bson.M{"eventId": eventID})
}

func (db *DB) GetEventByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return db.getEvent(ctx, bson.M{"_id": id})
}

func (db *DB) getEvent(ctx context.Context, filter bson.M) (*models.Event, error) {
	var ev models.Event
	err := db.Events.FindOne(ctx, filter).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &ev, nil
}

// protectedEventFields are server-controlled and stripped from any update
// body before the merge, regardless of what the caller supplied.
var protectedEventFields = []string{
	"_id", "eventId", "ownerId", "ownerEmail", "ownerName", "createdAt",
}

// UpdateEventByEventID merges the caller-supplied fields into the event.
func (db *DB) UpdateEventByEventID(ctx context.Context, eventID string, fields bson.M) error {
	return db.updateEvent(ctx, bson.M{"eventId": eventID}, fields)
}

func (db *DB) UpdateEventByID(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	return db.updateEvent(ctx, bson.M{"_id": id}, fields)
}

func (db *DB) updateEvent(ctx context.Context, filter, fields bson.M) error {
	for _, f := range protectedEventFields {
		delete(fields, f)
	}
	fields["updatedAt"] = time.Now().UTC()

	res, err := db.Events.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEventByEventID removes the event and pulls it from the owner's
// myEvents. Both lookup forms report ErrEventNotFound for a missing event.
func (db *DB) DeleteEventByEventID(ctx context.Context, eventID string) error {
	ev, err := db.GetEventByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	return db.deleteEvent(ctx, ev)
}

func (db *DB) DeleteEventByID(ctx context.Context, id primitive.ObjectID) error {
	ev, err := db.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	return db.deleteEvent(ctx, ev)
}

func (db *DB) deleteEvent(ctx context.Context, ev *models.Event) error {
	ownerUpdated := false
	if ev.OwnerID != "" {
		pulled, err := db.removeEventRef(ctx, ev.OwnerID, ev.EventID, "myEvents", "totalEventsCreated")
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}
		// Only re-add on compensation if the pull actually changed the list;
		// a no-op pull must not become a phantom ref.
		ownerUpdated = pulled
	}

	_, err := db.Events.DeleteOne(ctx, bson.M{"_id": ev.ID})
	if err != nil {
		if ownerUpdated {
			// Compensate: the event still exists, so restore the owner ref.
			if aerr := db.AddOwnedEvent(ctx, ev.OwnerID, ev.EventID); aerr != nil {
				log.Printf("[DeleteEvent] compensation failed for %s: %v", ev.EventID, aerr)
			}
		}
		return fmt.Errorf("delete event %s: %w", ev.EventID, err)
	}
	return nil
}

// JoinEvent moves the (event, user) pair to JOINED. The capacity cap and the
// no-duplicate rule are enforced inside a single guarded event update, so
// concurrent joins cannot overshoot maxVolunteers or double-list a uid. The
// user-side credit follows; if it fails the event update is reverted.
// On success the returned event carries the post-join counters.
func (db *DB) JoinEvent(ctx context.Context, eventID, uid, userEmail, userName string) (*models.Event, error) {
	ev, err := db.GetEventByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	user, err := db.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, id := range user.JoinedEvents {
		if id == eventID {
			return nil, ErrAlreadyJoined
		}
	}

	entry := models.Volunteer{
		UserID:    uid,
		UserEmail: userEmail,
		UserName:  userName,
		JoinedAt:  time.Now().UTC(),
	}

	// A maxVolunteers of zero means uncapped.
	filter := bson.M{
		"eventId":              eventID,
		"volunteerList.userId": bson.M{"$ne": uid},
		"$expr": bson.M{"$or": bson.A{
			bson.M{"$lte": bson.A{"$maxVolunteers", 0}},
			bson.M{"$lt": bson.A{"$volunteers", "$maxVolunteers"}},
		}},
	}
	update := bson.M{
		"$inc":  bson.M{"volunteers": 1, "liveAttendance": 1},
		"$push": bson.M{"volunteerList": entry},
		"$set":  bson.M{"updatedAt": entry.JoinedAt},
	}

	res, err := db.Events.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("join event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		if cause := db.classifyJoinMiss(ctx, eventID, uid); cause != nil {
			return nil, cause
		}
		// The re-read found space and no roster entry, so a concurrent leave
		// freed a slot after the miss. Retry the guarded update once.
		res, err = db.Events.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, fmt.Errorf("join event %s: %w", eventID, err)
		}
		if res.MatchedCount == 0 {
			if cause := db.classifyJoinMiss(ctx, eventID, uid); cause != nil {
				return nil, cause
			}
			return nil, ErrEventFull
		}
	}

	pts := ev.Points
	if pts == 0 {
		pts = defaultJoinPoints
	}

	ures, err := db.Users.UpdateOne(ctx,
		bson.M{"uid": uid},
		bson.M{
			"$addToSet": bson.M{"joinedEvents": eventID},
			"$inc":      bson.M{"totalEventsJoined": 1, "totalPoints": pts},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil || ures.MatchedCount == 0 {
		db.revertJoin(ctx, eventID, uid)
		if err != nil {
			return nil, fmt.Errorf("credit user %s: %w", uid, err)
		}
		return nil, ErrUserNotFound
	}

	ev.Volunteers++
	ev.LiveAttendance++
	ev.VolunteerList = append(ev.VolunteerList, entry)
	return ev, nil
}

// classifyJoinMiss explains why a guarded join matched nothing. A nil result
// means the event now has space and no roster entry for uid, so the miss was
// transient and the caller may retry.
func (db *DB) classifyJoinMiss(ctx context.Context, eventID, uid string) error {
	ev, err := db.GetEventByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	for _, v := range ev.VolunteerList {
		if v.UserID == uid {
			return ErrAlreadyJoined
		}
	}
	if ev.MaxVolunteers > 0 && ev.Volunteers >= ev.MaxVolunteers {
		return ErrEventFull
	}
	return nil
}

// revertJoin undoes the event side of a join whose user-side credit failed.
func (db *DB) revertJoin(ctx context.Context, eventID, uid string) {
	_, err := db.Events.UpdateOne(ctx,
		bson.M{"eventId": eventID, "volunteerList.userId": uid},
		bson.M{
			"$inc":  bson.M{"volunteers": -1, "liveAttendance": -1},
			"$pull": bson.M{"volunteerList": bson.M{"userId": uid}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		log.Printf("[JoinEvent] compensation failed for %s/%s: %v", eventID, uid, err)
	}
}

// LeaveEvent is the inverse of JoinEvent: same guarded event update, same
// compensation if the user-side debit fails.
func (db *DB) LeaveEvent(ctx context.Context, eventID, uid string) (*models.Event, error) {
	ev, err := db.GetEventByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := db.GetUserByUID(ctx, uid); err != nil {
		return nil, err
	}

	var entry *models.Volunteer
	for i := range ev.VolunteerList {
		if ev.VolunteerList[i].UserID == uid {
			entry = &ev.VolunteerList[i]
			break
		}
	}
	if entry == nil {
		return nil, ErrNotJoined
	}

	res, err := db.Events.UpdateOne(ctx,
		bson.M{"eventId": eventID, "volunteerList.userId": uid},
		bson.M{
			"$inc":  bson.M{"volunteers": -1, "liveAttendance": -1},
			"$pull": bson.M{"volunteerList": bson.M{"userId": uid}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("leave event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		// Someone else processed this leave between the read and the write.
		return nil, ErrNotJoined
	}

	pts := ev.Points
	if pts == 0 {
		pts = defaultJoinPoints
	}

	ures, err := db.Users.UpdateOne(ctx,
		bson.M{"uid": uid, "joinedEvents": eventID},
		bson.M{
			"$pull": bson.M{"joinedEvents": eventID},
			"$inc":  bson.M{"totalEventsJoined": -1, "totalPoints": -pts},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil || ures.MatchedCount == 0 {
		db.revertLeave(ctx, eventID, *entry)
		if err != nil {
			return nil, fmt.Errorf("debit user %s: %w", uid, err)
		}
		return nil, ErrNotJoined
	}

	ev.Volunteers--
	ev.LiveAttendance--
	kept := ev.VolunteerList[:0]
	for _, v := range ev.VolunteerList {
		if v.UserID != uid {
			kept = append(kept, v)
		}
	}
	ev.VolunteerList = kept
	return ev, nil
}

// revertLeave restores the event side of a leave whose user-side debit
// failed, keeping the original join timestamp.
func (db *DB) revertLeave(ctx context.Context, eventID string, entry models.Volunteer) {
	_, err := db.Events.UpdateOne(ctx,
		bson.M{"eventId": eventID, "volunteerList.userId": bson.M{"$ne": entry.UserID}},
		bson.M{
			"$inc":  bson.M{"volunteers": 1, "liveAttendance": 1},
			"$push": bson.M{"volunteerList": entry},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		log.Printf("[LeaveEvent] compensation failed for %s/%s: %v", eventID, entry.UserID, err)
	}
}
