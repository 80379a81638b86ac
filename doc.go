// Package rapidbusavl subscribes to the live vehicle feed behind the
// Prasarana Rapid Bus kiosk dashboard and decodes what it pushes.
//
// RunLive resolves a session from the kiosk page, opens the Socket.IO
// connection, keeps the subscription alive and hands every decoded
// payload to a feed.Reporter. RunOneShot reads the public GTFS-Realtime
// vehicle positions feed once instead.
package rapidbusavl
