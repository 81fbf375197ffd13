package mdstream

import "iter"

// WalkResult is the result of a walk operation.
type WalkResult int

// WalkContinue indicates that the walk operation should continue.
const WalkContinue = 0

// WalkReplace indicates that the current event should be replaced with the
// events returned by the function. If the event is a Start, its whole
// scope up to the matching End is replaced.
const WalkReplace = 1

// WalkSkip indicates that the current event should be kept and, if it is
// a Start, its scope passed through without being visited.
const WalkSkip = 2

// WalkStop indicates that the walk operation should stop immediately.
const WalkStop = 3

// Filter applies the function 'fun' to each event of 'seq' and returns the
// resulting stream. Start/End pairs in 'seq' are expected to be well
// nested.
//
// The behavior of the filter depends on the WalkResult returned by 'fun':
//
//   - WalkStop: Emits the current event, then passes the rest of the
//     stream through unchanged.
//   - WalkSkip: Emits the current event; for a Start, its scope is passed
//     through unchanged and not visited.
//   - WalkReplace: Replaces the current event (for a Start, the whole
//     scope) with the events returned by 'fun'.
//   - WalkContinue: Emits the current event.
//
// To remove a scope, 'fun' should return an empty slice of events along
// with WalkReplace.
//
// Example:
//
//	seq := mdstream.Filter(p.All(), func(ev mdstream.Event) ([]mdstream.Event, mdstream.WalkResult) {
//	    if ev.IsStart(mdstream.ImageTag) {
//	        return nil, mdstream.WalkReplace
//	    }
//	    return nil, mdstream.WalkContinue
//	})
func Filter(seq iter.Seq[Event], fun func(Event) ([]Event, WalkResult)) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		var (
			depth   int  // nesting inside a scope that is not visited
			drop    bool // the scope is replaced rather than passed through
			stopped bool
		)
		for ev := range seq {
			if depth > 0 {
				switch ev.Kind {
				case StartEvent:
					depth++
				case EndEvent:
					depth--
				}
				if drop {
					continue
				}
				if !yield(ev) {
					return
				}
				continue
			}
			if stopped {
				if !yield(ev) {
					return
				}
				continue
			}
			out, res := fun(ev)
			switch res {
			case WalkReplace:
				for _, e := range out {
					if !yield(e) {
						return
					}
				}
				if ev.Kind == StartEvent {
					depth, drop = 1, true
				}
				continue
			case WalkSkip:
				if ev.Kind == StartEvent {
					depth, drop = 1, false
				}
			case WalkStop:
				stopped = true
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Query applies the function 'fun' to each event of 'seq' without
// altering the stream.
//
// The function 'fun' returns a WalkResult to control the traversal process:
//
//   - WalkStop: Terminates the traversal process immediately.
//   - WalkSkip: For a Start, skips the events of its scope.
//   - WalkContinue: Continues to the next event without any special action.
//
// Example:
//
//	var headers int
//	mdstream.Query(p.All(), func(ev mdstream.Event) mdstream.WalkResult {
//	    if ev.IsStart(mdstream.HeaderTag) {
//	        headers++
//	        return mdstream.WalkSkip
//	    }
//	    return mdstream.WalkContinue
//	})
//	fmt.Printf("doc has %d headers\n", headers)
func Query(seq iter.Seq[Event], fun func(Event) WalkResult) {
	depth := 0
	for ev := range seq {
		if depth > 0 {
			switch ev.Kind {
			case StartEvent:
				depth++
			case EndEvent:
				depth--
			}
			continue
		}
		switch fun(ev) {
		case WalkStop:
			return
		case WalkSkip:
			if ev.Kind == StartEvent {
				depth = 1
			}
		}
	}
}
