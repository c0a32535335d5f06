package chunkmodel

// EventKind identifies what a Model just did.
type EventKind string

const (
	EventChunkDom      EventKind = "chunk_dom"
	EventMaterialized  EventKind = "materialized"
	EventHeightsSynced EventKind = "heights_synced"
	EventReset         EventKind = "reset"
)

// Event is delivered synchronously to subscribers.
type Event struct {
	Kind  EventKind
	Chunk string // dotted chunk id, for EventMaterialized
	Row   int    // row index, for EventHeightsSynced
	Count int    // rows built, children inserted, or elements written
}

// Subscribe registers fn for every event and returns a function that
// removes it.
func (m *Model[R]) Subscribe(fn func(Event)) (unsubscribe func()) {
	if m.destroyed {
		return func() {}
	}
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() {
		delete(m.observers, id)
	}
}

func (m *Model[R]) emit(ev Event) {
	for _, fn := range m.observers {
		fn(ev)
	}
}
