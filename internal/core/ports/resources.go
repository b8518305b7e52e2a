package ports

import (
	"context"

	"go.trai.ch/weft/internal/core/domain"
)

// ResourceProber observes the current state of declared resources.
//
//go:generate mockgen -source=resources.go -destination=mocks/mock_resources.go -package=mocks
type ResourceProber interface {
	// State fingerprints every file, command and environment variable in res.
	State(ctx context.Context, res domain.Resources) (*domain.ResourcesState, error)

	// MissingPaths returns the declared file paths of res that do not exist.
	MissingPaths(res domain.Resources) []string
}
