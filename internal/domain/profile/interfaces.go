package profile

import "context"

// Repository provides persistence for profiles.
type Repository interface {
	Upsert(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id string) (*Profile, error)
}
