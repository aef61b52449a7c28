// Package config defines the settings shared by the chimed binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the control socket path, the engine timing knobs
// and the presenter setup. Both chimed and chimectl read the same file.
package config
