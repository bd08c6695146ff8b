package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"sebasongjog/database"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// uploadTimeout bounds the Cloudinary transfer separately from the default
// request timeout; a large image would blow the 10s budget mid-transfer.
const uploadTimeout = 60 * time.Second

func eventImageUploadParams(eventID string, now time.Time) uploader.UploadParams {
	return uploader.UploadParams{
		Folder:         "sebasongjog/events",
		PublicID:       eventID + "_" + now.Format("20060102150405"),
		Transformation: "c_limit,w_1200,h_1200,q_auto",
	}
}

// UploadEventImage uploads a multipart "image" to Cloudinary and appends the
// resulting URL to the event's image list.
func (h *Handler) UploadEventImage(c *gin.Context) {
	eventID := c.Param("eventId")

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := h.db.GetEventByEventID(ctx, eventID); err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		log.Printf("[UploadEventImage] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch event"})
		return
	}

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	defer file.Close()

	cld, err := cloudinary.NewFromURL(h.cfg.CloudinaryURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
		return
	}

	uploadCtx, uploadCancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer uploadCancel()

	result, err := cld.Upload.Upload(uploadCtx, file, eventImageUploadParams(eventID, time.Now()))
	if err != nil {
		log.Printf("[UploadEventImage] upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	// The original request context may already be near its deadline after a
	// long transfer; record the URL on the upload context instead.
	_, err = h.db.Events.UpdateOne(uploadCtx,
		bson.M{"eventId": eventID},
		bson.M{
			"$push": bson.M{"images": result.SecureURL},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		log.Printf("[UploadEventImage] record url: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL})
}
