// Package notify delivers granted firings to the user.
//
// The engine hands each firing to a single Presenter; fan-out, command
// execution, webhook delivery and control-client pushes are all Presenter
// implementations, so the engine stays ignorant of delivery details.
package notify
