// Package ctl implements the chimectl subcommands: authoring, validating and
// pushing schedule files, and inspecting a running daemon over its control
// socket. It never computes due-ness; that stays in the daemon.
package ctl
