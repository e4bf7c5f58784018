// Package server exposes the state of a running netwait poller over HTTP.
//
// The server provides a single read-only JSON endpoint, GET /api/status, and
// is intended for operators or orchestration scripts that want to see how long
// a host has been waiting for connectivity.
package server
