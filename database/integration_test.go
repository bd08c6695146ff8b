package database

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"sebasongjog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// testDB connects to the Mongo instance named by SEBA_TEST_MONGO_URI and
// starts from empty collections. Tests are skipped when the variable is not
// set so the unit suite stays green without a database.
func testDB(t *testing.T) (*DB, context.Context) {
	t.Helper()

	uri := os.Getenv("SEBA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SEBA_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, uri, "sebasongjog_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Disconnect(ctx) })

	require.NoError(t, db.Users.Drop(ctx))
	require.NoError(t, db.Events.Drop(ctx))
	require.NoError(t, db.Counters.Drop(ctx))
	require.NoError(t, db.EnsureIndexes(ctx))

	return db, ctx
}

func seedUser(t *testing.T, db *DB, ctx context.Context, uid string) *models.User {
	t.Helper()
	user, created, err := db.UpsertUser(ctx, UpsertUserInput{
		UID:   uid,
		Email: uid + "@example.com",
	})
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func seedEvent(t *testing.T, db *DB, ctx context.Context, ownerUID string, maxVolunteers, points int) *models.Event {
	t.Helper()
	ev := &models.Event{
		Title:         "Beach Cleanup",
		Date:          "2024-05-01",
		Location:      "Cox's Bazar",
		Visibility:    "public",
		MaxVolunteers: maxVolunteers,
		Points:        points,
		OwnerID:       ownerUID,
	}
	require.NoError(t, db.CreateEvent(ctx, ev))
	return ev
}

func TestUpsertUserTwiceUpdatesInsteadOfDuplicating(t *testing.T) {
	db, ctx := testDB(t)

	first, created, err := db.UpsertUser(ctx, UpsertUserInput{
		UID:         "uid123",
		Email:       "old@example.com",
		DisplayName: "Samiul",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "USR001", first.UserID)
	assert.Equal(t, 0, first.TotalEventsCreated)
	assert.Equal(t, 0, first.TotalEventsJoined)
	assert.Equal(t, 0, first.TotalPoints)

	second, created, err := db.UpsertUser(ctx, UpsertUserInput{
		UID:   "uid123",
		Email: "new@example.com",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "USR001", second.UserID)
	assert.Equal(t, "new@example.com", second.Email)
	assert.Equal(t, "Samiul", second.DisplayName, "empty displayName must not clobber the stored one")

	n, err := db.Users.CountDocuments(ctx, bson.M{"uid": "uid123"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCreateEventCreditsOwner(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")

	ev := seedEvent(t, db, ctx, "owner1", 0, 0)
	assert.Equal(t, "EVT001", ev.EventID)

	owner, err := db.GetUserByUID(ctx, "owner1")
	require.NoError(t, err)
	assert.Equal(t, []string{ev.EventID}, owner.MyEvents)
	assert.Equal(t, 1, owner.TotalEventsCreated)
}

func TestJoinLeaveRoundTrip(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	user := seedUser(t, db, ctx, "uid999")
	ev := seedEvent(t, db, ctx, "owner1", 3, 25)

	joined, err := db.JoinEvent(ctx, ev.EventID, user.UID, user.Email, "Tester")
	require.NoError(t, err)
	assert.Equal(t, 1, joined.Volunteers)
	assert.Equal(t, 1, joined.LiveAttendance)
	assert.Len(t, joined.VolunteerList, 1)

	u, err := db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Equal(t, []string{ev.EventID}, u.JoinedEvents)
	assert.Equal(t, 1, u.TotalEventsJoined)
	assert.Equal(t, 25, u.TotalPoints)

	left, err := db.LeaveEvent(ctx, ev.EventID, user.UID)
	require.NoError(t, err)
	assert.Equal(t, 0, left.Volunteers)
	assert.Equal(t, 0, left.LiveAttendance)
	assert.Empty(t, left.VolunteerList)

	u, err = db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Empty(t, u.JoinedEvents)
	assert.Equal(t, 0, u.TotalEventsJoined)
	assert.Equal(t, 0, u.TotalPoints)

	stored, err := db.GetEventByEventID(ctx, ev.EventID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Volunteers)
	assert.Empty(t, stored.VolunteerList)
}

func TestJoinDefaultPoints(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	user := seedUser(t, db, ctx, "uid1")
	ev := seedEvent(t, db, ctx, "owner1", 0, 0)

	_, err := db.JoinEvent(ctx, ev.EventID, user.UID, user.Email, "")
	require.NoError(t, err)

	u, err := db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Equal(t, 10, u.TotalPoints)
}

func TestJoinTwiceIsConflict(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	user := seedUser(t, db, ctx, "uid1")
	ev := seedEvent(t, db, ctx, "owner1", 5, 0)

	_, err := db.JoinEvent(ctx, ev.EventID, user.UID, user.Email, "")
	require.NoError(t, err)

	_, err = db.JoinEvent(ctx, ev.EventID, user.UID, user.Email, "")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestLeaveWithoutJoinIsConflict(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	user := seedUser(t, db, ctx, "uid1")
	ev := seedEvent(t, db, ctx, "owner1", 5, 0)

	_, err := db.LeaveEvent(ctx, ev.EventID, user.UID)
	assert.ErrorIs(t, err, ErrNotJoined)
}

func TestJoinMissingEventOrUser(t *testing.T) {
	db, ctx := testDB(t)
	user := seedUser(t, db, ctx, "uid1")

	_, err := db.JoinEvent(ctx, "EVT404", user.UID, user.Email, "")
	assert.ErrorIs(t, err, ErrEventNotFound)

	seedUser(t, db, ctx, "owner1")
	ev := seedEvent(t, db, ctx, "owner1", 0, 0)
	_, err = db.JoinEvent(ctx, ev.EventID, "ghost", "", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestJoinAtCapacityIsConflict(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	a := seedUser(t, db, ctx, "uidA")
	b := seedUser(t, db, ctx, "uidB")
	ev := seedEvent(t, db, ctx, "owner1", 1, 0)

	_, err := db.JoinEvent(ctx, ev.EventID, a.UID, a.Email, "")
	require.NoError(t, err)

	_, err = db.JoinEvent(ctx, ev.EventID, b.UID, b.Email, "")
	assert.ErrorIs(t, err, ErrEventFull)

	// State unchanged for the rejected user.
	u, err := db.GetUserByUID(ctx, b.UID)
	require.NoError(t, err)
	assert.Empty(t, u.JoinedEvents)
	assert.Equal(t, 0, u.TotalPoints)
}

func TestConcurrentJoinsNeverOvershootCapacity(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")

	const userCount = 20
	const capacity = 5
	ev := seedEvent(t, db, ctx, "owner1", capacity, 0)

	users := make([]*models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		users = append(users, seedUser(t, db, ctx, fmt.Sprintf("uid%02d", i)))
	}

	var wg sync.WaitGroup
	var successCount, fullCount int64
	wg.Add(userCount)
	for _, u := range users {
		go func(uid, email string) {
			defer wg.Done()
			_, err := db.JoinEvent(ctx, ev.EventID, uid, email, "")
			switch {
			case err == nil:
				atomic.AddInt64(&successCount, 1)
			case err == ErrEventFull:
				atomic.AddInt64(&fullCount, 1)
			default:
				t.Errorf("JoinEvent unexpected error: %v", err)
			}
		}(u.UID, u.Email)
	}
	wg.Wait()

	assert.EqualValues(t, capacity, successCount)
	assert.EqualValues(t, userCount-capacity, fullCount)

	stored, err := db.GetEventByEventID(ctx, ev.EventID)
	require.NoError(t, err)
	assert.Equal(t, capacity, stored.Volunteers)
	assert.Len(t, stored.VolunteerList, capacity)
}

func TestDeleteEventRemovesOwnerRef(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	ev := seedEvent(t, db, ctx, "owner1", 0, 0)

	require.NoError(t, db.DeleteEventByEventID(ctx, ev.EventID))

	owner, err := db.GetUserByUID(ctx, "owner1")
	require.NoError(t, err)
	assert.Empty(t, owner.MyEvents)
	assert.Equal(t, 0, owner.TotalEventsCreated)

	_, err = db.GetEventByEventID(ctx, ev.EventID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	// Both delete forms report NotFound for a missing event.
	assert.ErrorIs(t, db.DeleteEventByEventID(ctx, ev.EventID), ErrEventNotFound)
	assert.ErrorIs(t, db.DeleteEventByID(ctx, ev.ID), ErrEventNotFound)
}

func TestEventRefMutationsKeepCountersInSync(t *testing.T) {
	db, ctx := testDB(t)
	user := seedUser(t, db, ctx, "uid1")

	require.NoError(t, db.AddOwnedEvent(ctx, user.UID, "EVT777"))
	// Re-adding the same id must not move the counter.
	require.NoError(t, db.AddOwnedEvent(ctx, user.UID, "EVT777"))

	u, err := db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Equal(t, []string{"EVT777"}, u.MyEvents)
	assert.Equal(t, 1, u.TotalEventsCreated)

	require.NoError(t, db.RemoveOwnedEvent(ctx, user.UID, "EVT777"))
	require.NoError(t, db.RemoveOwnedEvent(ctx, user.UID, "EVT777"))

	u, err = db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Empty(t, u.MyEvents)
	assert.Equal(t, 0, u.TotalEventsCreated)

	assert.ErrorIs(t, db.AddOwnedEvent(ctx, "ghost", "EVT777"), ErrUserNotFound)
}

func TestUpdateEventStripsProtectedFields(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	ev := seedEvent(t, db, ctx, "owner1", 0, 0)

	err := db.UpdateEventByEventID(ctx, ev.EventID, bson.M{
		"title":   "Updated Title",
		"eventId": "EVT999",
		"ownerId": "hacker",
	})
	require.NoError(t, err)

	stored, err := db.GetEventByEventID(ctx, ev.EventID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", stored.Title)
	assert.Equal(t, ev.EventID, stored.EventID)
	assert.Equal(t, "owner1", stored.OwnerID)

	err = db.UpdateEventByEventID(ctx, "EVT404", bson.M{"title": "x"})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestListPublicEventsHidesPrivate(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	seedUser(t, db, ctx, "owner2")

	pub := seedEvent(t, db, ctx, "owner1", 0, 0)
	priv := &models.Event{
		Title:      "Members Only Drive",
		Date:       "2024-06-01",
		Location:   "Dhaka",
		Visibility: "private",
		OwnerID:    "owner2",
	}
	require.NoError(t, db.CreateEvent(ctx, priv))

	// No viewer: the private event stays hidden.
	events, err := db.ListPublicEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, pub.EventID, events[0].EventID)

	// The owner sees their own private event, newest first.
	events, err = db.ListPublicEvents(ctx, "owner2")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, priv.EventID, events[0].EventID)
	assert.Equal(t, pub.EventID, events[1].EventID)

	// A different uid gains nothing.
	events, err = db.ListPublicEvents(ctx, "owner1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, pub.EventID, events[0].EventID)
}

func strPtr(s string) *string { return &s }

func TestUpdateProfilePointerSemantics(t *testing.T) {
	db, ctx := testDB(t)

	user, _, err := db.UpsertUser(ctx, UpsertUserInput{
		UID:         "uid1",
		Email:       "uid1@example.com",
		DisplayName: "Samiul",
	})
	require.NoError(t, err)

	require.NoError(t, db.UpdateProfile(ctx, user.UID, ProfileUpdate{
		Phone:    strPtr("01711000000"),
		Location: strPtr("Dhaka"),
	}))

	// An explicit empty string clears the field; omitted fields stay put.
	require.NoError(t, db.UpdateProfile(ctx, user.UID, ProfileUpdate{
		Phone: strPtr(""),
	}))

	u, err := db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Equal(t, "", u.Phone)
	assert.Equal(t, "Dhaka", u.Location)
	assert.Equal(t, "Samiul", u.DisplayName)
	assert.Equal(t, user.UserID, u.UserID)
	assert.Equal(t, "uid1@example.com", u.Email)
	assert.Equal(t, 0, u.TotalEventsCreated)
	assert.Equal(t, 0, u.TotalPoints)

	assert.ErrorIs(t, db.UpdateProfile(ctx, "ghost", ProfileUpdate{
		Phone: strPtr("x"),
	}), ErrUserNotFound)
}

func TestEventRefRemovalReportsWhetherListChanged(t *testing.T) {
	db, ctx := testDB(t)
	user := seedUser(t, db, ctx, "uid1")

	// Pulling an id that was never there is a no-op and must say so, or a
	// delete compensation could re-add a ref that never existed.
	pulled, err := db.removeEventRef(ctx, user.UID, "EVT123", "myEvents", "totalEventsCreated")
	require.NoError(t, err)
	assert.False(t, pulled)

	require.NoError(t, db.AddOwnedEvent(ctx, user.UID, "EVT123"))
	pulled, err = db.removeEventRef(ctx, user.UID, "EVT123", "myEvents", "totalEventsCreated")
	require.NoError(t, err)
	assert.True(t, pulled)

	u, err := db.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Empty(t, u.MyEvents)
	assert.Equal(t, 0, u.TotalEventsCreated)
}

func TestJoinMissClassification(t *testing.T) {
	db, ctx := testDB(t)
	seedUser(t, db, ctx, "owner1")
	a := seedUser(t, db, ctx, "uidA")
	ev := seedEvent(t, db, ctx, "owner1", 1, 0)

	// Space available, uid absent: the miss was transient, nil tells the
	// caller to retry instead of reporting a spurious full event.
	assert.NoError(t, db.classifyJoinMiss(ctx, ev.EventID, "uidA"))

	_, err := db.JoinEvent(ctx, ev.EventID, a.UID, a.Email, "")
	require.NoError(t, err)

	assert.ErrorIs(t, db.classifyJoinMiss(ctx, ev.EventID, a.UID), ErrAlreadyJoined)
	assert.ErrorIs(t, db.classifyJoinMiss(ctx, ev.EventID, "uidB"), ErrEventFull)
	assert.ErrorIs(t, db.classifyJoinMiss(ctx, "EVT404", "uidB"), ErrEventNotFound)
}

func TestNextSequenceIsMonotonic(t *testing.T) {
	db, ctx := testDB(t)

	a, err := db.NextSequence(ctx, "events")
	require.NoError(t, err)
	b, err := db.NextSequence(ctx, "events")
	require.NoError(t, err)
	c, err := db.NextSequence(ctx, "users")
	require.NoError(t, err)

	assert.EqualValues(t, 1, a)
	assert.EqualValues(t, 2, b)
	assert.EqualValues(t, 1, c, "counters are independent per name")
}
