package psip

// gpsEpochUnixMs is 1980-01-06T00:00:00Z expressed as Unix milliseconds.
const gpsEpochUnixMs = 315964800000

// GPSToUnixMs converts a GPS seconds-since-epoch value (as carried by ATSC
// EIT start times) to Unix milliseconds, per §4.7. Not corrected for leap
// seconds: ATSC transmits GPS time explicitly.
func GPSToUnixMs(gpsSeconds uint32) int64 {
	return gpsEpochUnixMs + int64(gpsSeconds)*1000
}
