package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Pagination describes list metadata returned alongside collections.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Location is a WGS84 coordinate pair with a human-readable address.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   string  `json:"address,omitempty"`
	Building  string  `json:"building,omitempty"`
	Floor     string  `json:"floor,omitempty"`
	Room      string  `json:"room,omitempty"`
}

// Point converts the location into an orb coordinate.
func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// Valid reports whether the coordinates are plausible WGS84 values.
func (l Location) Valid() bool {
	return l.Longitude >= -180 && l.Longitude <= 180 &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		!(l.Longitude == 0 && l.Latitude == 0)
}

// Value implements driver.Valuer so locations persist as JSONB.
func (l Location) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *Location) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
