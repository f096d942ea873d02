package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a command hook with no configured timeout.
const DefaultCommandTimeout = 5 * time.Second

// Command returns a handler that runs a shell command with the JSON
// payload on stdin. The event name is exported as QUEUEBOARD_EVENT.
func Command(command string, timeout time.Duration) Handler {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.Env = append(cmd.Environ(), "QUEUEBOARD_EVENT="+p.Event)
		// Children of sh may hold stderr open after the kill.
		cmd.WaitDelay = time.Second

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook %q: %w: %s", command, err, msg)
			}
			return fmt.Errorf("hook %q: %w", command, err)
		}
		return nil
	}
}
