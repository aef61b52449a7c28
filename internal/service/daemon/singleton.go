package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// errAlreadyRunning indicates another chimed process is already alive.
var errAlreadyRunning = errors.New("chimed is already running")

// ensureSingleInstance scans the process table for another live copy of this
// executable. Two daemons would race over the control socket file, so the
// second one refuses to start.
func ensureSingleInstance() error {
	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()
	executable := filepath.Base(os.Args[0])

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != executable {
			continue
		}

		return fmt.Errorf("%w: pid %d", errAlreadyRunning, process.Pid())
	}

	return nil
}
