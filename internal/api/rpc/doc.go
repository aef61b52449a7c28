// Package rpc implements the JSON-RPC 2.0 control transport for the daemon.
//
// The daemon listens on a unix socket; every accepted connection gets its
// own jrpc2 server with push enabled, so alarm firings can be streamed to
// watching clients. The package also provides the typed client used by
// chimectl.
package rpc
