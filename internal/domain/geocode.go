package domain

import "context"

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Geocoder resolves free-text location queries to coordinates.
// A nil result with nil error means no match.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (*Coordinates, error)
}
