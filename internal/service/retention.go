package service

import "time"

// staleClientTimeTolerance bounds how far in the past a client-declared
// send time may lie before the server clock replaces it. Declared times in
// the future are never trusted. Tunable; offline-compose delays beyond the
// tolerance are clamped rather than preserved.
const staleClientTimeTolerance = 100 * time.Second

// OldestAllowed returns the earliest send time a conversation still
// retains. Reads filter by it and truncation deletes by it, so the two
// can never disagree.
func OldestAllowed(maxLiveSeconds int, now time.Time) time.Time {
	return now.Add(-time.Duration(maxLiveSeconds) * time.Second)
}

// ClampSendTime validates a client-declared send time against the server
// clock and falls back to now when it is implausible.
func ClampSendTime(recordTime, now time.Time) time.Time {
	if recordTime.After(now) || recordTime.Add(staleClientTimeTolerance).Before(now) {
		return now
	}
	return recordTime
}
