package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and whether a run can proceed
// without it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the resolved state of one Requirement. Command holds the
// resolved path when Available is set and the searched name otherwise.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

func (r Requirement) status() Status {
	return Status{
		Name:        r.Name,
		Command:     strings.TrimSpace(r.Command),
		Description: strings.TrimSpace(r.Description),
		Optional:    r.Optional,
	}
}

func (s Status) found(path string) Status {
	s.Command = path
	s.Available = true
	s.Detail = ""
	return s
}

func (s Status) missing(format string, args ...any) Status {
	s.Available = false
	s.Detail = fmt.Sprintf(format, args...)
	return s
}

// CheckBinaries looks every requirement up on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, lookPath(req.status()))
	}
	return results
}

func lookPath(s Status) Status {
	if s.Command == "" {
		return s.missing("command not configured")
	}
	resolved, err := exec.LookPath(s.Command)
	if err != nil {
		return s.missing("binary %q not found", s.Command)
	}
	return s.found(resolved)
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if s.Optional || s.Available {
			continue
		}
		missing = append(missing, s)
	}
	return missing
}
