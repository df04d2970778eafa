package service

// Event reports progress within a stage.
type Event struct {
	Stage   Stage
	Current int
	Total   int
	Item    string
	Err     error
	Done    bool
}

// ProgressFunc receives events. It may be called from worker goroutines.
type ProgressFunc func(Event)

func (f ProgressFunc) emit(e Event) {
	if f != nil {
		f(e)
	}
}
