// Package claude runs the Claude Code CLI as a subprocess: prompt in on
// stdin, printed response out, bounded by a timeout.
package claude

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const maxOutputRunes = 3500

var ansiExpr = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Runner invokes the Claude CLI for one prompt at a time.
type Runner struct {
	cliPath    string
	workingDir string
	timeout    time.Duration
}

func NewRunner(cliPath, workingDir string, timeout time.Duration) *Runner {
	return &Runner{cliPath: cliPath, workingDir: workingDir, timeout: timeout}
}

// FindCLI probes the configured path and then PATH with --version and
// returns the first binary that responds. Called once at startup.
func FindCLI(configuredPath string) (string, error) {
	candidates := []string{configuredPath, "claude"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = exec.CommandContext(probeCtx, path, "--version").Run()
		cancel()
		if err == nil {
			log.Printf("found Claude CLI: %s", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("claude CLI not found; install with: npm install -g @anthropic-ai/claude-code")
}

// Execute runs the CLI with the prompt on stdin and returns the cleaned,
// truncated response text. Errors are returned as user-presentable strings
// by the caller; a timeout surfaces as context.DeadlineExceeded.
func (r *Runner) Execute(ctx context.Context, prompt string) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.cliPath, "--print", "--dangerously-skip-permissions")
	cmd.Dir = r.workingDir
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("executing Claude CLI (%d chars of prompt)", len(prompt))
	err := cmd.Run()

	if execCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("claude execution: %w", context.DeadlineExceeded)
	}

	output := stdout.String()
	errOutput := stderr.String()

	switch {
	case err != nil && output == "":
		if errOutput != "" {
			return "", fmt.Errorf("claude CLI failed: %s", FormatOutput(errOutput))
		}
		return "", fmt.Errorf("claude CLI failed: %w", err)
	case output == "" && errOutput != "":
		return "Error:\n" + FormatOutput(errOutput), nil
	case output == "":
		return "Task completed (no output)", nil
	default:
		return FormatOutput(output), nil
	}
}

// FormatOutput strips ANSI escape sequences and truncates long responses.
func FormatOutput(output string) string {
	output = ansiExpr.ReplaceAllString(output, "")
	runes := []rune(output)
	if len(runes) > maxOutputRunes {
		return string(runes[:maxOutputRunes]) + "\n\n...(output truncated)"
	}
	return output
}
