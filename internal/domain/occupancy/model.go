package occupancy

import "github.com/google/uuid"

// WardOccupancy is one ward's slice of the occupancy report.
type WardOccupancy struct {
	WardID    uuid.UUID `json:"ward_id"`
	WardName  string    `json:"ward_name"`
	WardType  string    `json:"ward_type"`
	Capacity  int       `json:"capacity"`
	Occupied  int       `json:"occupied"`
	Available int       `json:"available"`
	Rate      float64   `json:"rate"`
	Band      Band      `json:"band"`
}

// BedStats summarizes the bed pool as a whole.
type BedStats struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
	Active    int `json:"active"`
}
