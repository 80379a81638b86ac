// Package socketio is a narrow Socket.IO client for the dashboard feed.
//
// It speaks Engine.IO v4 over a websocket transport and Socket.IO v5 on the
// default namespace, and implements only what the feed uses: the open and
// connect handshake, ping/pong, text and binary events, server close and
// disconnect. Polling transports, acks, and custom namespaces are not
// supported.
package socketio
