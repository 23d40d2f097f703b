// Package domain models river gauge data and the flood risk heuristics built
// on top of it.
//
// # Data Sources
//
// Gauge readings come from the USGS Instantaneous Values service
// (https://waterservices.usgs.gov/nwis/iv/). Two parameter codes matter here:
//
//	00060  discharge (streamflow), cubic feet per second
//	00065  gage height (stage), feet
//
// Precipitation forecasts come from the NWS API (https://api.weather.gov):
// a point lookup resolves to a gridpoint forecast whose periods carry a
// probability-of-precipitation percentage and a short text description.
//
// Authoritative flood stage thresholds come from the NOAA National Water
// Prediction Service gauge catalog. Not every USGS site has an NWPS entry;
// see [ResolveThresholds] for the calculated fallback.
//
// # Flood Stage Thresholds
//
// NWS defines four graduated severity levels for a gauged river:
//
//	action    water approaching flood stage; mitigation activity begins
//	minor     minimal property threat, some road flooding
//	moderate  inundation of structures and roads near the river
//	major     extensive inundation, significant evacuations
//
// Thresholds are always strictly increasing: action < minor < moderate <
// major. When the authoritative lookup is missing, partial, or violates
// monotonicity, a fallback is calculated from the current stage with floors
// that preserve the invariant even for near-zero stages. Every threshold set
// carries a source tag ("official" or "calculated") so consumers can display
// the provenance.
//
// # Risk Scoring
//
// The composite 0-100 risk score is a weighted blend of three factors, each
// clamped to [0,100]:
//
//	stage factor    55%  how close the current stage is to minor flood stage
//	trend factor    30%  fractional flow change across the last ~6 readings
//	precip factor   15%  average PoP across rain/storm forecast periods
//
// The scoring is a heuristic operational policy, not a calibrated hydrologic
// model. Flood probability is the total score clamped to [5,95]: the model is
// never certain in either direction.
//
// # Purity
//
// Everything in this package below the service ports is pure: no I/O, no
// mutable package state apart from the swappable clock used to stamp
// generation times. Identical inputs always produce identical outputs, which
// is what makes the threshold/score/classification properties testable
// without any network fixtures.
package domain
