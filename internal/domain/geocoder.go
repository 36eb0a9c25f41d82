package domain

import "context"

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	// Geocode returns the best match for name, or ErrLocationNotFound.
	Geocode(ctx context.Context, name string) (GeoLocation, error)
}
