package sink

import "github.com/bazelment/yoloswe/ptystream/ptyparse"

// Tee returns a sink that delivers each event to every sink in order.
// Nil sinks are skipped.
func Tee(sinks ...ptyparse.Sink) ptyparse.Sink {
	live := make([]ptyparse.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	if len(live) == 1 {
		return live[0]
	}
	return ptyparse.SinkFunc(func(e ptyparse.Event) {
		for _, s := range live {
			s.HandleEvent(e)
		}
	})
}

// Filter returns a sink that forwards only the listed event types.
func Filter(next ptyparse.Sink, types ...ptyparse.EventType) ptyparse.Sink {
	allowed := make(map[ptyparse.EventType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return ptyparse.SinkFunc(func(e ptyparse.Event) {
		if allowed[e.Type()] {
			next.HandleEvent(e)
		}
	})
}
