// Package ws streams the live monitoring state to dashboard clients over
// WebSocket: the full summary on connect and on a fixed interval, and every
// alert the moment it fires. Slow clients are disconnected rather than
// buffered without bound.
package ws
