package ctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/chimed/chimed/internal/domain/schedule"
	"github.com/chimed/chimed/internal/logger"
)

// DefaultScheduleFilename is where chimectl init writes its starter file.
const DefaultScheduleFilename = "schedule.yaml"

// scheduleFilePermissions lets the owner edit and others read.
const scheduleFilePermissions = 0o644

var (
	// errScheduleExists guards chimectl init against clobbering a schedule.
	errScheduleExists = errors.New("schedule file already exists")
	// errScheduleProblems is returned by Validate when problems were found.
	errScheduleProblems = errors.New("schedule has problems")
)

// starterTemplate is the commented example written by chimectl init. The two
// placeholders receive generated alarm ids.
const starterTemplate = `# chimed schedule
#
# Push this file with: chimectl push <file>
# Times are 24-hour "HH:MM" in the daemon's local time zone.
# Days are Sun..Sat; omitting the list means every day.
groups:
  - name: Work
    enabled: true
    alarms:
      - id: %s
        label: Standup
        time: "09:30"
        days: [Mon, Tue, Wed, Thu, Fri]
        enabled: true
      - id: %s
        label: Wrap up
        time: "17:45"
        enabled: true
`

// LoadScheduleFile reads a schedule YAML file into a wire snapshot.
func LoadScheduleFile(path string) (*schedule.Snapshot, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	var snapshot schedule.Snapshot
	if err := yaml.Unmarshal(contents, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}

	return &snapshot, nil
}

// Problem is one issue found in a schedule file. The daemon's scan silently
// tolerates all of these, so the CLI surfaces them instead.
type Problem struct {
	// Path locates the offending entry, e.g. "groups[0].alarms[2]".
	Path string
	// Message describes what is wrong and what the daemon would do.
	Message string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Message
}

// CheckSnapshot inspects a snapshot for entries the daemon would skip or
// misread: unparseable times, unknown weekday tags, duplicate or missing ids.
func CheckSnapshot(snapshot *schedule.Snapshot) []Problem {
	var problems []Problem

	// Alarm id -> path of its first appearance.
	seen := make(map[string]string)

	for gi := range snapshot.Groups {
		group := &snapshot.Groups[gi]
		groupPath := fmt.Sprintf("groups[%d]", gi)

		if group.Name == "" {
			problems = append(problems, Problem{
				Path:    groupPath,
				Message: "group has no name",
			})
		}

		for ai := range group.Alarms {
			alarm := &group.Alarms[ai]
			alarmPath := fmt.Sprintf("%s.alarms[%d]", groupPath, ai)

			if _, ok := schedule.ParseClockTime(alarm.Time); !ok {
				problems = append(problems, Problem{
					Path:    alarmPath,
					Message: fmt.Sprintf("unparseable time %q, the alarm will never fire", alarm.Time),
				})
			}

			for _, tag := range alarm.Days {
				if _, ok := schedule.ParseWeekday(tag); !ok {
					problems = append(problems, Problem{
						Path:    alarmPath,
						Message: fmt.Sprintf("unknown weekday tag %q, the day is ignored", tag),
					})
				}
			}

			switch {
			case alarm.ID == "":
				problems = append(problems, Problem{
					Path:    alarmPath,
					Message: "alarm has no id, push will generate one",
				})
			case seen[alarm.ID] != "":
				problems = append(problems, Problem{
					Path: alarmPath,
					Message: fmt.Sprintf("duplicate id %q (first used at %s), firings share one cooldown",
						alarm.ID, seen[alarm.ID]),
				})
			default:
				seen[alarm.ID] = alarmPath
			}
		}
	}

	return problems
}

// FillMissingIDs assigns generated ids to alarms without one and reports how
// many were filled.
func FillMissingIDs(snapshot *schedule.Snapshot) int {
	filled := 0

	for gi := range snapshot.Groups {
		alarms := snapshot.Groups[gi].Alarms
		for ai := range alarms {
			if alarms[ai].ID == "" {
				alarms[ai].ID = uuid.NewString()
				filled++
			}
		}
	}

	return filled
}

// StarterSchedule renders a commented example schedule with fresh alarm ids.
func StarterSchedule() []byte {
	return []byte(fmt.Sprintf(starterTemplate, uuid.NewString(), uuid.NewString()))
}

// Init writes a commented starter schedule. It refuses to overwrite an
// existing file.
func Init(ctx context.Context, opts *Options, path string) error {
	if path == "" {
		path = DefaultScheduleFilename
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", errScheduleExists, path)
	}

	if err := os.WriteFile(path, StarterSchedule(), scheduleFilePermissions); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}

	logger.InfoKV(ctx, "Starter schedule written", "path", path)
	fmt.Fprintf(opts.writer(), "wrote %s\n", path)

	return nil
}

// Validate parses a schedule file and reports every problem the daemon's
// tolerant scan would swallow. A non-nil error signals problems were found,
// so scripts can gate on the exit code.
func Validate(_ context.Context, opts *Options, path string) error {
	snapshot, err := LoadScheduleFile(path)
	if err != nil {
		return err
	}

	problems := CheckSnapshot(snapshot)
	out := opts.writer()

	if len(problems) == 0 {
		fmt.Fprintf(out, "%s: ok (%d groups, %d alarms)\n",
			path, len(snapshot.Groups), snapshot.CountAlarms())

		return nil
	}

	for _, problem := range problems {
		fmt.Fprintf(out, "%s: %s\n", path, problem)
	}

	return fmt.Errorf("%w: %d found", errScheduleProblems, len(problems))
}
