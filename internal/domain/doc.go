// Package domain models the two telemetry feeds behind the storm dashboard:
// date-keyed active-storm snapshots and the regional rainfall grid.
//
// # Storm Feed
//
// The upstream API answers GET /api/date/{YYYYMMDD}/storms with an envelope:
//
//	{"date": "20240615", "directory": "20240615_114143", "total_files": 3,
//	 "data": {"AL05": {...}, "97L": {...}, "tormentas": {...}}}
//
// The "data" object interleaves storm records with auxiliary entries
// (general summaries, files that failed to load upstream). An entry is a
// storm when it is a JSON object with a non-empty "id". Everything else is
// skipped with a recorded reason, never treated as an error. Key order is
// preserved so the dashboard lists storms in feed order.
//
// Source field names:
//
//	id            string (numbers are accepted and formatted)
//	name          display name
//	max_wind      wind speed; absent → 0
//	min_pressure  pressure; absent → 0
//	basin         canonical basin code, e.g. "north_atlantic"
//	year, season  passthrough integers
//	ace           accumulated cyclone energy; absent → 0
//	invest        truthy when the system is an unconfirmed invest
//	storm_type    type history, most recent last, e.g. ["TD","TS","HU"]
//
// Category derivation:
//
//	Only the last storm_type entry counts: HU → 3, TS → 2, TD → 1.
//	Anything else, or a missing/non-array history, yields 1. A storm that
//	peaked as a hurricane and has weakened reports its current category.
//
// Status:
//
//	"watch" whenever invest is truthy, otherwise "active".
//
// # Rain Feed
//
// GET /rainmap/realtime returns interpolated samples {lon, lat, rain}. Each
// sample is classified into a fixed three-bucket step function:
//
//	rain ≤ 0        → 0
//	0 < rain ≤ 1    → 0.5
//	rain > 1        → 1   (values above 2 are clamped to the top bucket)
//
// Map styling interpolates over [0, 2], so the ramp input is bucket × 2. See
// [ClassifiedRainFeature.Intensity].
//
// # Date Keys
//
// Dates are 8-digit YYYYMMDD strings with no separators. Anything else is
// "no selection", see [ParseDateKey].
package domain
