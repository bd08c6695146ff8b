package handlers

import (
	"testing"

	"sebasongjog/models"

	"github.com/stretchr/testify/assert"
)

func TestToEventDefaults(t *testing.T) {
	req := &createEventRequest{
		Title:    "Beach Cleanup",
		Date:     "2024-05-01",
		Location: "Cox's Bazar",
		OwnerID:  "uid123",
	}

	ev := req.toEvent()

	assert.Equal(t, "general", ev.Category)
	assert.Equal(t, "public", ev.Visibility)
	assert.Equal(t, 0, ev.Volunteers)
	assert.Equal(t, 0, ev.MaxVolunteers)
	assert.NotNil(t, ev.Requirements)
	assert.NotNil(t, ev.Images)
	assert.NotNil(t, ev.VolunteerList)
	assert.Empty(t, ev.VolunteerList)
	assert.Equal(t, models.Impact{
		WasteCollected:       "N/A",
		AreaCleaned:          "N/A",
		PreviousParticipants: "0",
	}, ev.Impact)
}

func TestToEventKeepsCallerValues(t *testing.T) {
	req := &createEventRequest{
		Title:         "Tree Planting",
		Date:          "2024-06-15",
		Location:      "Dhaka",
		OwnerID:       "uid123",
		Category:      "environment",
		Visibility:    "private",
		MaxVolunteers: 40,
		Points:        50,
		Coordinates:   &models.Coordinates{Lat: 23.8, Lng: 90.4},
		Impact:        &models.Impact{WasteCollected: "12kg"},
	}

	ev := req.toEvent()

	assert.Equal(t, "environment", ev.Category)
	assert.Equal(t, "private", ev.Visibility)
	assert.Equal(t, 40, ev.MaxVolunteers)
	assert.Equal(t, 50, ev.Points)
	assert.Equal(t, 23.8, ev.Coordinates.Lat)
	assert.Equal(t, "12kg", ev.Impact.WasteCollected)
}
