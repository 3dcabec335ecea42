package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

type sent struct {
	to string // connection id for unicasts, room code for broadcasts
	ev *Event
}

// recorder is an Emitter that records emissions and lets tests toggle
// connection liveness.
type recorder struct {
	live       map[string]bool
	unicasts   []sent
	broadcasts []sent
}

func newRecorder(live ...string) *recorder {
	r := &recorder{live: make(map[string]bool)}
	for _, id := range live {
		r.live[id] = true
	}
	return r
}

func (r *recorder) Unicast(connID string, ev *Event) {
	r.unicasts = append(r.unicasts, sent{to: connID, ev: ev})
}

func (r *recorder) Broadcast(roomCode string, ev *Event) {
	r.broadcasts = append(r.broadcasts, sent{to: roomCode, ev: ev})
}

func (r *recorder) IsLive(connID string) bool {
	return r.live[connID]
}

func (r *recorder) reset() {
	r.unicasts = nil
	r.broadcasts = nil
}

// unicastsTo returns events of kind sent to connID, in order.
func (r *recorder) unicastsTo(connID string, kind EventKind) []*Event {
	var out []*Event
	for _, s := range r.unicasts {
		if s.to == connID && s.ev.Kind == kind {
			out = append(out, s.ev)
		}
	}
	return out
}

func (r *recorder) broadcastsOf(roomCode string, kind EventKind) []*Event {
	var out []*Event
	for _, s := range r.broadcasts {
		if s.to == roomCode && s.ev.Kind == kind {
			out = append(out, s.ev)
		}
	}
	return out
}

// manualScheduler captures scheduled tasks so tests fire them explicitly.
type manualScheduler struct {
	tasks []*manualTask
}

type manualTask struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	task := &manualTask{delay: d, fn: f}
	s.tasks = append(s.tasks, task)
	return task
}

// fireAll runs every task, including stopped ones, to model a timer that
// already fired before it could be cancelled.
func (s *manualScheduler) fireAll() {
	tasks := s.tasks
	s.tasks = nil
	for _, task := range tasks {
		task.fn()
	}
}

func newTestEngine(live ...string) (*Engine, *recorder, *manualScheduler) {
	rec := newRecorder(live...)
	sched := &manualScheduler{}
	return NewEngine(rec, sched, nil), rec, sched
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func viewNames(views []PlayerView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}
