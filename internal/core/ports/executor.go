// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"time"

	"go.trai.ch/weft/internal/core/domain"
)

// Command is a shell script run on behalf of a target.
type Command struct {
	Target domain.TargetID
	Dir    string
	Script string

	// TTY attaches the script to a pseudo-terminal instead of pipes.
	TTY bool
}

// Executor defines the interface for running target scripts.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes a build script to completion.
	// It returns domain.ErrCancelled once the process group has been reaped
	// if ctx is cancelled first.
	Run(ctx context.Context, cmd Command) error

	// Start launches a long-running service script.
	Start(cmd Command) (Process, error)

	// Capture runs cmd in dir and returns its standard output.
	Capture(ctx context.Context, cmd, dir string) (string, error)
}

// Process is a running service.
type Process interface {
	// Stop asks the process group to terminate, kills it once timeout has
	// elapsed, and waits for it to exit.
	Stop(timeout time.Duration) error
}
