// Package domain models air-quality readings, forecasts, and alert
// subscriptions for the monitor service.
//
// # AQI Scale
//
// The Air Quality Index is a unitless integer severity score. The US EPA
// scale partitions [0, ∞) into six contiguous, end-inclusive bands:
//
//	0–50    Good                            green
//	51–100  Moderate                        yellow
//	101–150 Unhealthy for Sensitive Groups  orange
//	151–200 Unhealthy                       red
//	201–300 Very Unhealthy                  purple
//	301+    Hazardous                       maroon
//
// The table is defined once, in [Classify], and shared by every consumer:
// the forecast calibrator, the dashboard handlers, and the alert notifier
// templates. Duplicating it per widget produced inconsistent color encodings
// in an earlier iteration of this system; nothing outside this package may
// restate the breakpoints.
//
// # Forecast Calibration
//
// A single backend-trained forecast model is systematically biased against
// live ground-truth readings. [Calibrate] corrects the level while preserving
// the predicted trend: it scales every point of a forecast series by the
// ratio of the authoritative current reading to the series anchor (the
// first, "today" point), rounds, and re-classifies each point from the
// breakpoint table. This is a deliberate, bounded heuristic, not a
// statistical re-fit. Known limitation: a near-zero anchor makes the ratio
// unstable, so a zero anchor skips calibration entirely and differences
// below [DefaultEpsilon] AQI units are treated as visually insignificant
// jitter and left alone.
//
// # Locations
//
// A location is either a place name ("Los Angeles") or a coordinate pair in
// the ground-truth feed's "geo:<lat>;<lon>" form. Both forms are passed
// through to upstream providers verbatim.
package domain
