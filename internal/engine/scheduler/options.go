package scheduler

import "time"

const (
	// DefaultChannelCapacity is the capacity of every actor inbox and of the
	// shared output channel.
	DefaultChannelCapacity = 64

	// DefaultStopTimeout is how long a service is given to exit before it is killed.
	DefaultStopTimeout = 5 * time.Second
)

// Options configures a single Run.
type Options struct {
	// ChannelCapacity bounds every channel of the engine. A full channel
	// suspends its sender.
	ChannelCapacity int

	// Watch keeps the engine running and rebuilds targets whose input changes.
	Watch bool

	// Debounce coalesces file events arriving within the window. Zero
	// reports every event.
	Debounce time.Duration

	// StopTimeout is how long a service is given to exit before it is killed.
	StopTimeout time.Duration

	// TTY attaches scripts to a pseudo-terminal.
	TTY bool
}

// DefaultOptions returns the options of a one-shot run.
func DefaultOptions() Options {
	return Options{
		ChannelCapacity: DefaultChannelCapacity,
		StopTimeout:     DefaultStopTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.ChannelCapacity <= 0 {
		o.ChannelCapacity = DefaultChannelCapacity
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	return o
}
