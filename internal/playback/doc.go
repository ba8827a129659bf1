// Package playback runs the player's session: the [Engine] state machine, the [Sequencer]
// that chooses what plays next and the audio [Output] backends.
//
// The engine owns a single [State] value. Every command goes through an engine method, and a
// monitor goroutine reports the position once per tick while a track plays. When the track is
// about to end the monitor hands off to an auto-advance that asks the sequencer for the next
// track. Commands issued in the meantime win: each one bumps a generation counter that stale
// auto-advances check before acting.
package playback
