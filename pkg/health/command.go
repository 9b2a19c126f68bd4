package health

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// sampleSession is fed to the test command on stdin, shaped like the
// document the host sends.
const sampleSession = `{"session_id":"health-check","model":{"id":"claude-sonnet-4","display_name":"Sonnet"},` +
	`"workspace":{"current_dir":".","project_dir":"."},"cost":{"total_cost_usd":0.01,"total_duration_ms":1000}}`

// runCommand runs command through the shell and reports its exit status
// and first output line.
func runCommand(ctx context.Context, command string, timeout time.Duration) Item {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	// Children of the shell can outlive it and keep the output pipe open.
	cmd.WaitDelay = 500 * time.Millisecond
	cmd.Stdin = strings.NewReader(sampleSession)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	began := time.Now()
	err := cmd.Run()
	it := Item{Name: "command", Kind: KindCommand, Latency: time.Since(began)}

	first := firstLine(out.Bytes())
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		it.Detail = fmt.Sprintf("timed out after %s", timeout)
	case errors.As(err, &exitErr):
		it.Detail = fmt.Sprintf("exit status %d", exitErr.ExitCode())
		if first != "" {
			it.Detail += ": " + first
		}
	case err != nil:
		it.Detail = err.Error()
	default:
		it.OK = true
		it.Detail = "exit status 0"
		if first != "" {
			it.Detail += ": " + first
		}
	}
	return it
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
