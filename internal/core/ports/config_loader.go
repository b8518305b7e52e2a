package ports

import "go.trai.ch/weft/internal/core/domain"

// ConfigLoader defines the interface for loading the target graph.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the project in dir, follows its imports and returns the validated target graph.
	Load(dir string) (*domain.Graph, error)
}
