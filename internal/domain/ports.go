package domain

import "context"

type DestinationRepository interface {
	// Write paths
	ReplaceDestinations(ctx context.Context, ds []Destination) error

	// Read paths
	ListDestinations(ctx context.Context) ([]Destination, error)
	FindDestinations(ctx context.Context, q DestinationQuery) ([]Destination, error)
}

type HotelSearchClient interface {
	SearchHotels(ctx context.Context, geoID int64, page int, currency string) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ModelStore persists the cluster artifact. LoadModel returns ErrNotFound when nothing was saved yet.
type ModelStore interface {
	LoadModel(ctx context.Context) (ClusterArtifact, error)
	SaveModel(ctx context.Context, a ClusterArtifact) error
}

// ProfileStore keeps the last-known preference profile per session.
type ProfileStore interface {
	GetProfile(ctx context.Context, session string) (PreferenceProfile, bool, error)
	PutProfile(ctx context.Context, session string, p PreferenceProfile) error
}
