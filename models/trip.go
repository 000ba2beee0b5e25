package models

// Trip is the caller-supplied trip context for detail card building.
// Trip CRUD itself lives in the surrounding application.
type Trip struct {
	ID              string `json:"id"`
	Destination     string `json:"destination"`
	MainDestination string `json:"main_destination,omitempty"`
}

// TripItem is one itinerary entry the caller wants a detail card for.
type TripItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ItemType    string `json:"item_type"`
	DayIndex    int    `json:"day_index"`
}
