package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary audiocheck relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Available commands are reported with their resolved path.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

// VerifierRequirements lists the binaries a check run needs.
func VerifierRequirements(binary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     binary,
			Description: "Required to decode and verify audio files",
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Useful for inspecting files reported as FAILED",
			Optional:    true,
		},
	}
}
