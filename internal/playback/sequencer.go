package playback

import (
	"math/rand/v2"
	"path/filepath"
	"slices"
	"time"
)

// DefaultRestartThreshold is how far into a track "previous" restarts it instead of going back.
const DefaultRestartThreshold = 20 * time.Second

// Move is the kind of a backward navigation decision.
type Move int

const (
	MoveNone Move = iota
	MoveRestart
	MoveTo
)

// Decision is the result of [Sequencer.Previous].
type Decision struct {
	Move   Move
	Target string
}

// Sequencer picks the next and previous tracks. It holds no session state of its own.
type Sequencer struct {
	rng              *rand.Rand
	restartThreshold time.Duration
}

// NewSequencer returns a sequencer. A nil rng uses a randomly seeded source.
func NewSequencer(rng *rand.Rand, restartThreshold time.Duration) *Sequencer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if restartThreshold <= 0 {
		restartThreshold = DefaultRestartThreshold
	}
	return &Sequencer{rng: rng, restartThreshold: restartThreshold}
}

// identity is the name a track is known by in the playlist snapshot.
func identity(track string) string {
	if track == "" {
		return ""
	}
	return filepath.Base(track)
}

func indexOf(entries []string, track string) int {
	name := identity(track)
	return slices.IndexFunc(entries, func(e string) bool { return identity(e) == name })
}

// Next returns the track to play after the current one.
//
// Without shuffle it wraps around the snapshot and needs at least two entries.
// With shuffle it pops from the bag, rebuilding it first when stale.
func (s *Sequencer) Next(st *State) (string, bool) {
	n := len(st.Playlist)
	if n == 0 {
		return "", false
	}

	if st.Shuffle {
		if s.bagStale(st) {
			s.Rebuild(st, false)
		}
		if len(st.Bag) == 0 {
			return "", false
		}
		last := len(st.Bag) - 1
		pick := st.Bag[last]
		st.Bag = st.Bag[:last]
		return pick, true
	}

	if n < 2 {
		return "", false
	}
	i := indexOf(st.Playlist, st.Current)
	return st.Playlist[(i+1)%n], true
}

// Previous decides what a backward move does given how far into the current track playback is.
func (s *Sequencer) Previous(st *State, elapsed time.Duration) Decision {
	if st.Current != "" && elapsed >= s.restartThreshold {
		return Decision{Move: MoveRestart}
	}

	current := identity(st.Current)
	for len(st.History) > 0 {
		last := st.History[len(st.History)-1]
		st.History = st.History[:len(st.History)-1]
		if identity(last) != current {
			return Decision{Move: MoveTo, Target: last}
		}
	}

	if len(st.Playlist) > 0 {
		target := st.Playlist[0]
		if i := indexOf(st.Playlist, st.Current); i > 0 {
			target = st.Playlist[i-1]
		}
		if identity(target) != current {
			return Decision{Move: MoveTo, Target: target}
		}
	}

	if st.Current != "" {
		return Decision{Move: MoveRestart}
	}
	return Decision{Move: MoveNone}
}

// Rebuild refills the shuffle bag with a random permutation of the snapshot.
//
// The first build after shuffle is switched on leaves the current track out. Later builds keep every
// track but never put the current one on top, so the next pick is not an immediate repeat.
func (s *Sequencer) Rebuild(st *State, first bool) {
	bag := slices.Clone(st.Playlist)
	s.rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })

	current := identity(st.Current)
	if len(bag) > 1 && current != "" {
		if first {
			bag = slices.DeleteFunc(bag, func(e string) bool { return identity(e) == current })
		} else if top := len(bag) - 1; identity(bag[top]) == current {
			j := s.rng.IntN(top)
			bag[j], bag[top] = bag[top], bag[j]
		}
	}

	st.Bag = bag
	st.BagSource = len(st.Playlist)
}

// bagStale reports whether the bag is empty or no longer matches the snapshot.
func (s *Sequencer) bagStale(st *State) bool {
	if len(st.Bag) == 0 || st.BagSource != len(st.Playlist) {
		return true
	}
	for _, e := range st.Bag {
		if indexOf(st.Playlist, e) < 0 {
			return true
		}
	}
	return false
}
