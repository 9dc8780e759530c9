// Package rpc speaks the Cubensis RPC protocol: JSON frames over one websocket
// at ws://<host>:<port>/socket.
//
// # Frames
//
// Outbound requests are single-key envelopes naming the request kind:
//
//	{"SetProject":{"project_path":"/home/me/scene","enable_hot_reload":true}}
//
// Inbound status messages are flat:
//
//	{"is_error":false,"severity":1,"message":"Successfully loaded scene"}
//
// Severity is 0 (none), 1 (info), 2 (warning) or 3 (error). Responses carry no
// request id; they are independent events on the connection.
//
// # Client
//
// Dial returns at once and connects in the background. The client moves
// through connecting, open and closed exactly once and never reconnects.
// Requests sent while not open are dropped. Inbound frames that fail to decode
// are logged and dropped; the rest go through Display to a host.Notifier.
//
// # Server
//
// Server is a minimal Cubensis stand-in for local development and tests.
package rpc
