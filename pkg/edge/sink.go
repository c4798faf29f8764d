package edge

// Sink receives edge events.
type Sink interface {
	Emit(deviceID uint8, ev Event)
}

// SinkFunc is func form of Sink.
type SinkFunc func(deviceID uint8, ev Event)

// Emit implements Sink.
func (f SinkFunc) Emit(deviceID uint8, ev Event) {
	f(deviceID, ev)
}

// Sinks fans an event out to every sink in order.
type Sinks []Sink

// Emit implements Sink.
func (s Sinks) Emit(deviceID uint8, ev Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Emit(deviceID, ev)
		}
	}
}
