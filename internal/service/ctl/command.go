package ctl

import (
	"fmt"
	"io"
	"os"

	"github.com/chimed/chimed/internal/api/rpc"
	"github.com/chimed/chimed/internal/config"
)

// Options carries the settings shared by every chimectl subcommand.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// SocketPath provides an optional control socket override.
	SocketPath string
	// Out receives rendered command output. Defaults to standard output.
	Out io.Writer
}

// writer returns the command output destination.
func (o *Options) writer() io.Writer {
	if o.Out != nil {
		return o.Out
	}

	return os.Stdout
}

// loadSettings reads the YAML settings. Unlike the daemon, chimectl works
// without a settings file: when no explicit path is given and the default
// file does not exist, built-in defaults apply.
func loadSettings(opts *Options) (*config.Config, error) {
	if opts.ConfigPath == "" {
		if _, err := os.Stat(config.DefaultConfigFilename); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return cfg, nil
}

// connect loads settings and dials the daemon's control socket.
func connect(opts *Options, dialOpts *rpc.DialOptions) (*rpc.Client, error) {
	cfg, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	socketPath := cfg.SocketPath
	if opts.SocketPath != "" {
		socketPath = opts.SocketPath
	}

	cli, err := rpc.Dial(socketPath, dialOpts)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return cli, nil
}
