package cue

import "sync"

// Player receives fire-and-forget cue names.
type Player interface {
	PlayCue(name string)
}

// Sink plays a concrete sound.
type Sink interface {
	Play(sound string, volume float64)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(sound string, volume float64)

func (f SinkFunc) Play(sound string, volume float64) {
	if f != nil {
		f(sound, volume)
	}
}

// Func adapts a function to Player.
type Func func(name string)

func (f Func) PlayCue(name string) {
	if f != nil {
		f(name)
	}
}

type multi []Player

func (m multi) PlayCue(name string) {
	for _, p := range m {
		p.PlayCue(name)
	}
}

// Multi fans a cue out to every non-nil player.
func Multi(players ...Player) Player {
	out := make(multi, 0, len(players))
	for _, p := range players {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Recorder remembers every cue it is given.
type Recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *Recorder) PlayCue(name string) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
}

func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.names = nil
	r.mu.Unlock()
}
