package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"sebasongjog/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (h *Handler) GetVapidPublicKey(c *gin.Context) {
	if h.cfg.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "VAPID public key not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.cfg.VAPIDPublicKey})
}

type subscribeRequest struct {
	UID      string `json:"uid" binding:"required"`
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// SubscribePush stores one browser push subscription per uid; a repeat
// subscription replaces the old one.
func (h *Handler) SubscribePush(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := opCtx()
	defer cancel()

	sub := models.PushSubscription{
		UID: req.UID,
		Sub: webpush.Subscription{
			Endpoint: req.Endpoint,
			Keys: webpush.Keys{
				P256dh: req.Keys.P256dh,
				Auth:   req.Keys.Auth,
			},
		},
	}

	_, err := h.db.Subscriptions.UpdateOne(ctx,
		bson.M{"uid": req.UID},
		bson.M{"$set": bson.M{"uid": sub.UID, "sub": sub.Sub}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("[SubscribePush] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved successfully"})
}

// notifyOwner sends a push notification to the event owner, when they have a
// subscription. Runs async; failures are logged, never surfaced.
func (h *Handler) notifyOwner(ev *models.Event, title, body string) {
	if ev.OwnerID == "" || h.cfg.VAPIDPrivateKey == "" {
		return
	}
	uid := ev.OwnerID

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[notifyOwner] panic: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var sub models.PushSubscription
		err := h.db.Subscriptions.FindOne(ctx, bson.M{"uid": uid}).Decode(&sub)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return
		}
		if err != nil {
			log.Printf("[notifyOwner] find subscription for %s: %v", uid, err)
			return
		}

		payload, err := json.Marshal(map[string]interface{}{
			"title": title,
			"body":  body,
			"data": map[string]interface{}{
				"eventId":   ev.EventID,
				"timestamp": time.Now().Unix(),
			},
		})
		if err != nil {
			log.Printf("[notifyOwner] marshal payload: %v", err)
			return
		}

		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      "mailto:admin@seba-songjog.web.app",
			VAPIDPublicKey:  h.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: h.cfg.VAPIDPrivateKey,
			TTL:             30,
		})
		if err != nil {
			log.Printf("[notifyOwner] send to %s: %v", uid, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			// Subscription expired; drop it.
			if _, derr := h.db.Subscriptions.DeleteOne(ctx, bson.M{"uid": uid}); derr != nil {
				log.Printf("[notifyOwner] delete expired subscription: %v", derr)
			}
		}
	}()
}
