package plans

import (
	"time"

	"github.com/wanderplan/wanderplan/internal/places"
)

// GenerateRequest asks the backend to build an itinerary.
type GenerateRequest struct {
	Destination string   `json:"destination"`
	Origin      string   `json:"origin,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	Days        int      `json:"days"`
	Budget      int64    `json:"budget"`
	Travelers   int      `json:"travelers,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
}

// Activity is one stop in a day of the itinerary.
type Activity struct {
	Time        string           `json:"time"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	PlaceID     string           `json:"placeId,omitempty"`
	Location    *places.Location `json:"location,omitempty"`
	Cost        int64            `json:"cost"`
}

// DayPlan groups the activities of one day.
type DayPlan struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Activities []Activity `json:"activities"`
}

// Plan is a generated itinerary.
type Plan struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	Itinerary   []DayPlan `json:"itinerary"`
	TotalCost   int64     `json:"totalCost"`
	Currency    string    `json:"currency,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
