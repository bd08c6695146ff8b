package handlers

import (
	"errors"
	"log"
	"net/http"

	"sebasongjog/database"
	"sebasongjog/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListEvents returns every event, newest first.
func (h *Handler) ListEvents(c *gin.Context) {
	ctx, cancel := opCtx()
	defer cancel()

	events, err := h.db.ListEvents(ctx, nil)
	if err != nil {
		log.Printf("[ListEvents] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListPublicEvents hides private events. A ?uid= query unions in the events
// owned by that uid, so an owner still sees their own private events.
func (h *Handler) ListPublicEvents(c *gin.Context) {
	ctx, cancel := opCtx()
	defer cancel()

	events, err := h.db.ListPublicEvents(ctx, c.Query("uid"))
	if err != nil {
		log.Printf("[ListPublicEvents] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch public events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) GetEventByEventID(c *gin.Context) {
	ctx, cancel := opCtx()
	defer cancel()

	ev, err := h.db.GetEventByEventID(ctx, c.Param("eventId"))
	h.respondEvent(c, ev, err)
}

func (h *Handler) GetEventByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	ev, err := h.db.GetEventByID(ctx, id)
	h.respondEvent(c, ev, err)
}

func (h *Handler) respondEvent(c *gin.Context, ev *models.Event, err error) {
	if errors.Is(err, database.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		log.Printf("[GetEvent] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch event"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

type createEventRequest struct {
	Title           string              `json:"title"`
	Organization    string              `json:"organization"`
	Organizer       string              `json:"organizer"`
	Date            string              `json:"date"`
	Time            string              `json:"time"`
	EndTime         string              `json:"endTime"`
	Location        string              `json:"location"`
	Coordinates     *models.Coordinates `json:"coordinates"`
	Category        string              `json:"category"`
	Volunteers      int                 `json:"volunteers"`
	MaxVolunteers   int                 `json:"maxVolunteers"`
	Description     string              `json:"description"`
	FullDescription string              `json:"fullDescription"`
	Requirements    []string            `json:"requirements"`
	Images          []string            `json:"images"`
	Contact         *models.Contact     `json:"contact"`
	Verified        bool                `json:"verified"`
	Rating          float64             `json:"rating"`
	Reviews         int                 `json:"reviews"`
	Impact          *models.Impact      `json:"impact"`
	LiveAttendance  int                 `json:"liveAttendance"`
	Points          int                 `json:"points"`
	IsRecurring     bool                `json:"isRecurring"`
	Recurrence      string              `json:"recurrence"`
	OwnerID         string              `json:"ownerId"`
	OwnerEmail      string              `json:"ownerEmail"`
	OwnerName       string              `json:"ownerName"`
	Visibility      string              `json:"visibility"`
}

// CreateEvent inserts a new event and records ownership on the creator.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}
	if req.Title == "" || req.Date == "" || req.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, date and location are required"})
		return
	}
	if req.OwnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner ID is required"})
		return
	}

	ev := req.toEvent()

	ctx, cancel := opCtx()
	defer cancel()

	if err := h.db.CreateEvent(ctx, ev); err != nil {
		log.Printf("[CreateEvent] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event added successfully",
		"id":      ev.ID,
		"eventId": ev.EventID,
	})
}

func (req *createEventRequest) toEvent() *models.Event {
	ev := &models.Event{
		Title:           req.Title,
		Organization:    req.Organization,
		Organizer:       req.Organizer,
		Date:            req.Date,
		Time:            req.Time,
		EndTime:         req.EndTime,
		Location:        req.Location,
		Category:        req.Category,
		Volunteers:      req.Volunteers,
		MaxVolunteers:   req.MaxVolunteers,
		Description:     req.Description,
		FullDescription: req.FullDescription,
		Requirements:    req.Requirements,
		Images:          req.Images,
		Verified:        req.Verified,
		Rating:          req.Rating,
		Reviews:         req.Reviews,
		LiveAttendance:  req.LiveAttendance,
		Points:          req.Points,
		IsRecurring:     req.IsRecurring,
		Recurrence:      req.Recurrence,
		OwnerID:         req.OwnerID,
		OwnerEmail:      req.OwnerEmail,
		OwnerName:       req.OwnerName,
		Visibility:      req.Visibility,
		VolunteerList:   []models.Volunteer{},
	}

	if ev.Category == "" {
		ev.Category = "general"
	}
	if ev.Visibility == "" {
		ev.Visibility = "public"
	}
	if req.Coordinates != nil {
		ev.Coordinates = *req.Coordinates
	}
	if req.Contact != nil {
		ev.Contact = *req.Contact
	}
	if req.Impact != nil {
		ev.Impact = *req.Impact
	} else {
		ev.Impact = models.Impact{
			WasteCollected:       "N/A",
			AreaCleaned:          "N/A",
			PreviousParticipants: "0",
		}
	}
	if ev.Requirements == nil {
		ev.Requirements = []string{}
	}
	if ev.Images == nil {
		ev.Images = []string{}
	}
	return ev
}

// UpdateEventByEventID merges arbitrary fields into the event; the server-
// controlled fields are stripped before the merge.
func (h *Handler) UpdateEventByEventID(c *gin.Context) {
	fields, ok := bindUpdateFields(c)
	if !ok {
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	h.respondEventUpdate(c, h.db.UpdateEventByEventID(ctx, c.Param("eventId"), fields))
}

func (h *Handler) UpdateEventByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}
	fields, ok := bindUpdateFields(c)
	if !ok {
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	h.respondEventUpdate(c, h.db.UpdateEventByID(ctx, id, fields))
}

func bindUpdateFields(c *gin.Context) (bson.M, bool) {
	fields := bson.M{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return nil, false
	}
	return fields, true
}

func (h *Handler) respondEventUpdate(c *gin.Context, err error) {
	if errors.Is(err, database.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		log.Printf("[UpdateEvent] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully"})
}

// DeleteEventByEventID removes the event and pulls it from its owner's list.
// Deleting a missing event reports 404 on both lookup forms.
func (h *Handler) DeleteEventByEventID(c *gin.Context) {
	ctx, cancel := opCtx()
	defer cancel()

	h.respondEventDelete(c, h.db.DeleteEventByEventID(ctx, c.Param("eventId")))
}

func (h *Handler) DeleteEventByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	h.respondEventDelete(c, h.db.DeleteEventByID(ctx, id))
}

func (h *Handler) respondEventDelete(c *gin.Context, err error) {
	if errors.Is(err, database.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		log.Printf("[DeleteEvent] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
