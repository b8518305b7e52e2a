package watcher

// Pending reports how many events are buffered and not yet consumed.
func Pending(w *Watcher) int {
	return len(w.events)
}

// Stopped is closed once the event loop has exited.
func Stopped(w *Watcher) <-chan struct{} {
	return w.quit
}
