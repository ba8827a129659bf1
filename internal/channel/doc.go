// Package channel is the message channel between the UI and the playback service.
//
// Both directions are UDP datagrams on loopback, one JSON envelope per datagram:
//
//	{"kind": "seek_seconds", "payload": {"seconds": 42}}
//
// Commands arrive on the command port (3000 by default) and are read by a [Listener], which hands
// them to a [Dispatcher] one at a time in arrival order. Events leave through an [Emitter], which
// queues them without blocking and writes them to the event port (3002 by default) from its own
// goroutine.
//
// # Legacy payloads
//
// Older UIs send payloads as bare strings. The payload decoders accept "True"/"False" in any case
// for booleans, decimal strings for numbers and a single delimited string such as
// "['a.mp3', 'b.mp3']" for lists. See [ParseBool], [ParseNumber] and [ParseList].
//
// Malformed datagrams are dropped with a log line and counted in the rejected-messages metric.
package channel
