package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// runCommand executes an external tool, capturing stdout and folding stderr
// into the returned error for diagnostics.
func runCommand(ctx context.Context, logger *logrus.Logger, name string, args ...string) (string, error) {
	logger.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
	}).Debug("Executing command")

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrOutput := strings.TrimSpace(stderr.String())
		logger.WithFields(logrus.Fields{
			"command": name,
			"error":   err,
			"stderr":  stderrOutput,
		}).Error("Command execution failed")
		if stderrOutput != "" {
			return "", fmt.Errorf("command %q failed: %v (stderr: %s)", name, err, stderrOutput)
		}
		return "", fmt.Errorf("command %q failed: %w", name, err)
	}

	return stdout.String(), nil
}
