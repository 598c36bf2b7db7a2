package tsdemux

// Counters is a read-only snapshot of the parser's stream-corruption and
// table-update telemetry. Stream corruption is never fatal; it only
// increments these counters, per the parser's error-handling design.
type Counters struct {
	SyncErrors       int64
	TEIErrors        int64
	ContinuityErrors int64
	TableUpdates     int64
}
