package handlers

import (
	"errors"
	"log"
	"net/http"

	"sebasongjog/database"
	"sebasongjog/models"
	"sebasongjog/websocket"

	"github.com/gin-gonic/gin"
)

type joinRequest struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

// JoinEvent adds the user to the event roster and credits their points. The
// capacity and duplicate checks happen atomically in the storage layer, so a
// burst of concurrent joins cannot overshoot maxVolunteers.
func (h *Handler) JoinEvent(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	eventID := c.Param("eventId")
	ev, err := h.db.JoinEvent(ctx, eventID, req.UserID, req.UserEmail, req.UserName)
	if err != nil {
		h.respondMembershipError(c, err)
		return
	}

	h.hub.BroadcastAttendance(websocket.AttendanceUpdate{
		EventID:        ev.EventID,
		Volunteers:     ev.Volunteers,
		LiveAttendance: ev.LiveAttendance,
		Action:         "join",
	})
	h.notifyOwner(ev, "New volunteer", volunteerLabel(req.UserName, req.UserEmail)+" joined "+ev.Title)

	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined the event"})
}

type leaveRequest struct {
	UserID string `json:"userId"`
}

// LeaveEvent is the inverse transition: roster entry removed, points debited.
func (h *Handler) LeaveEvent(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	eventID := c.Param("eventId")
	ev, err := h.db.LeaveEvent(ctx, eventID, req.UserID)
	if err != nil {
		h.respondMembershipError(c, err)
		return
	}

	h.hub.BroadcastAttendance(websocket.AttendanceUpdate{
		EventID:        ev.EventID,
		Volunteers:     ev.Volunteers,
		LiveAttendance: ev.LiveAttendance,
		Action:         "leave",
	})
	h.notifyOwner(ev, "Volunteer left", "A volunteer left "+ev.Title)

	c.JSON(http.StatusOK, gin.H{"message": "Successfully left the event"})
}

func (h *Handler) respondMembershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, database.ErrEventFull):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event is full"})
	case errors.Is(err, database.ErrAlreadyJoined):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have already joined this event"})
	case errors.Is(err, database.ErrNotJoined):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have not joined this event"})
	default:
		log.Printf("[Membership] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event membership"})
	}
}

func volunteerLabel(name, email string) string {
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return "A volunteer"
}

// ListVolunteers returns the event's roster in join order.
func (h *Handler) ListVolunteers(c *gin.Context) {
	ctx, cancel := opCtx()
	defer cancel()

	ev, err := h.db.GetEventByEventID(ctx, c.Param("eventId"))
	if errors.Is(err, database.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		log.Printf("[ListVolunteers] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch event volunteers"})
		return
	}

	if ev.VolunteerList == nil {
		ev.VolunteerList = []models.Volunteer{}
	}
	c.JSON(http.StatusOK, ev.VolunteerList)
}
