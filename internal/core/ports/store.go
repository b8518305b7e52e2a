package ports

import "go.trai.ch/weft/internal/core/domain"

// StateStore persists the last successful resource state of each target.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type StateStore interface {
	// Load returns the saved state of a target.
	// Returns nil, nil if there is none or if it could not be decoded.
	Load(meta *domain.TargetMetadata) (*domain.TargetEnvState, error)

	// Save atomically replaces the saved state of a target.
	Save(meta *domain.TargetMetadata, state *domain.TargetEnvState) error

	// Delete removes the saved state of a target. A missing state is not an error.
	Delete(meta *domain.TargetMetadata) error
}
