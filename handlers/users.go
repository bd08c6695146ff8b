package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"sebasongjog/database"
	"sebasongjog/middleware"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type upsertUserRequest struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoURL"`
	AuthProvider string `json:"authProvider"`
}

// UpsertUser handles the auth-provider callback: first login creates the
// user, later logins refresh it. The response carries a session token when a
// JWT secret is configured.
func (h *Handler) UpsertUser(c *gin.Context) {
	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}
	if req.UID == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID and email are required"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	user, created, err := h.db.UpsertUser(ctx, database.UpsertUserInput{
		UID:          req.UID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PhotoURL:     req.PhotoURL,
		AuthProvider: req.AuthProvider,
	})
	if err != nil {
		log.Printf("[UpsertUser] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create/update user"})
		return
	}

	resp := gin.H{"user": user}
	if h.cfg.JWTSecret != "" {
		token, terr := middleware.IssueToken(user.UID, h.cfg.JWTSecret)
		if terr != nil {
			log.Printf("[UpsertUser] issue token: %v", terr)
		} else {
			resp["token"] = token
		}
	}

	if created {
		resp["message"] = "User created successfully"
		c.JSON(http.StatusCreated, resp)
		return
	}
	resp["message"] = "User updated"
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetUserByUID(c *gin.Context) {
	ctx, cancel := opCtx()
	defer cancel()

	user, err := h.db.GetUserByUID(ctx, c.Param("uid"))
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("[GetUserByUID] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUserByID looks a user up by the database's native identifier.
func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("uid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	user, err := h.db.GetUserByID(ctx, id)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("[GetUserByID] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetMyEvents resolves the user's owned event ids, newest first.
func (h *Handler) GetMyEvents(c *gin.Context) {
	h.listUserEvents(c, true)
}

// GetJoinedEvents resolves the user's joined event ids, newest first.
func (h *Handler) GetJoinedEvents(c *gin.Context) {
	h.listUserEvents(c, false)
}

func (h *Handler) listUserEvents(c *gin.Context, owned bool) {
	ctx, cancel := opCtx()
	defer cancel()

	user, err := h.db.GetUserByUID(ctx, c.Param("uid"))
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("[listUserEvents] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	ids := user.JoinedEvents
	if owned {
		ids = user.MyEvents
	}
	events, err := h.db.ListEventsByIDs(ctx, ids)
	if err != nil {
		log.Printf("[listUserEvents] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

type eventRefRequest struct {
	EventID string `json:"eventId"`
}

// AddMyEvent appends an event id to the user's owned list. Adding an id that
// is already present is a no-op; the created-counter only moves with the set.
func (h *Handler) AddMyEvent(c *gin.Context) {
	h.mutateEventRef(c, h.db.AddOwnedEvent, "Event added to user profile")
}

func (h *Handler) AddJoinedEvent(c *gin.Context) {
	h.mutateEventRef(c, h.db.AddJoinedEvent, "Event added to joined events")
}

func (h *Handler) mutateEventRef(c *gin.Context, op func(ctx context.Context, uid, eventID string) error, okMsg string) {
	var req eventRefRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event ID is required"})
		return
	}
	h.applyEventRef(c, op, req.EventID, okMsg)
}

// RemoveMyEvent pulls an event id from the user's owned list.
func (h *Handler) RemoveMyEvent(c *gin.Context) {
	h.applyEventRef(c, h.db.RemoveOwnedEvent, c.Param("eventId"), "Event removed from user profile")
}

func (h *Handler) RemoveJoinedEvent(c *gin.Context) {
	h.applyEventRef(c, h.db.RemoveJoinedEvent, c.Param("eventId"), "Event removed from joined events")
}

func (h *Handler) applyEventRef(c *gin.Context, op func(ctx context.Context, uid, eventID string) error, eventID, okMsg string) {
	ctx, cancel := opCtx()
	defer cancel()

	err := op(ctx, c.Param("uid"), eventID)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("[mutateEventRef] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": okMsg})
}

// UpdateProfile partially updates the mutable profile fields. Identity,
// membership, and counter fields are immutable through this path.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var upd database.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	err := h.db.UpdateProfile(ctx, c.Param("uid"), upd)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("[UpdateProfile] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User profile updated successfully"})
}
