package ast

import (
	"encoding/json"
	"fmt"
)

// LocationKind distinguishes coordinates from named places.
type LocationKind string

const (
	LocationNamed LocationKind = "NAMED"
	LocationGPS   LocationKind = "GPS"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String returns "lat,lon".
func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Valid reports whether the point lies within the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Location is where an emergency happens or a search is centred.
type Location struct {
	Kind        LocationKind
	Name        string       // set for named locations
	Coordinates *Coordinates // set for GPS locations
}

// Named returns a named location.
func Named(name string) Location {
	return Location{Kind: LocationNamed, Name: name}
}

// AtGPS returns a coordinate location.
func AtGPS(lat, lon float64) Location {
	return Location{Kind: LocationGPS, Coordinates: &Coordinates{Latitude: lat, Longitude: lon}}
}

// IsGPS reports whether the location carries coordinates.
func (l Location) IsGPS() bool {
	return l.Kind == LocationGPS && l.Coordinates != nil
}

// String returns the place name or "GPS:lat,lon".
func (l Location) String() string {
	if l.IsGPS() {
		return "GPS:" + l.Coordinates.String()
	}
	return l.Name
}

// MarshalJSON renders {"type": "NAMED", "name": ...} or
// {"type": "GPS", "coordinates": {...}}.
func (l Location) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": l.Kind}
	if l.IsGPS() {
		out["coordinates"] = l.Coordinates
	} else {
		out["name"] = l.Name
	}
	return json.Marshal(out)
}
