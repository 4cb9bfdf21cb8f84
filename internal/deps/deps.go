// Package deps reports whether the external tools clipexport shells out to
// are installed and which versions they are.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

const versionProbeTimeout = 5 * time.Second

// Tool names an external program and what clipexport uses it for.
type Tool struct {
	Name     string
	Binary   string
	Purpose  string
	Optional bool
	// VersionArg makes the binary print its version; empty skips the probe.
	VersionArg string
}

// Status is the outcome of checking one Tool.
type Status struct {
	Tool
	Path      string
	Version   string
	Available bool
	Detail    string
}

// Check resolves every tool on PATH and probes its version.
func Check(ctx context.Context, tools ...Tool) []Status {
	results := make([]Status, 0, len(tools))
	for _, tool := range tools {
		results = append(results, check(ctx, tool))
	}
	return results
}

func check(ctx context.Context, tool Tool) Status {
	status := Status{Tool: tool}
	binary := strings.TrimSpace(tool.Binary)
	if binary == "" {
		status.Detail = "binary not configured"
		return status
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		status.Detail = fmt.Sprintf("%q not found on PATH", binary)
		return status
	}
	status.Path = path
	if tool.VersionArg == "" {
		status.Available = true
		status.Detail = path
		return status
	}
	version, err := probeVersion(ctx, path, tool.VersionArg)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Version = version
	status.Available = true
	status.Detail = version
	return status
}

// probeVersion runs "<path> <arg>" and returns the token after "version" on
// the first output line.
func probeVersion(ctx context.Context, path, arg string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := commandContext(ctx, path, arg).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", path, arg, err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if !scanner.Scan() {
		return "", fmt.Errorf("%s %s: empty output", path, arg)
	}
	fields := strings.Fields(scanner.Text())
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return "", fmt.Errorf("%s %s: unrecognised output %q", path, arg, scanner.Text())
}
