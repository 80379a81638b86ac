// Package gtfsrt fetches one-shot GTFS-Realtime VehiclePositions feeds.
//
// This is the simple acquisition path: a single HTTP GET of a protobuf
// FeedMessage, flattened into VehiclePosition values. There is no session
// or connection state; the live dashboard feed lives in package feed.
package gtfsrt
