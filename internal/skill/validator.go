package skill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/marketvet-labs/marketvet/internal/issue"
)

// Status is the verdict for one skill directory.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// Unit is one independently validated skill directory.
type Unit struct {
	Dir  string // absolute skill directory on disk
	Path string // repository-relative display path (slash-separated)
}

// Result is the outcome of validating one skill directory.
type Result struct {
	SkillPath string
	Status    Status
	Issues    []issue.Issue
}

// Validator checks the structure of a single skill directory. The check
// is read-only and idempotent: validating the same directory twice yields
// the same verdict.
type Validator interface {
	Validate(ctx context.Context, u Unit) Result
}

// DefaultCommand is the external structural validator invoked per skill.
const DefaultCommand = "skills-ref"

// DefaultTimeout bounds one external validator invocation.
const DefaultTimeout = 30 * time.Second

// RefValidator runs the external skills-ref tool as `<command> validate
// <dir>` and maps its exit code to a verdict: 0 is a pass, anything else
// is a fail carrying the tool output. A timeout, missing binary, or spawn
// failure is downgraded to a fail result for that one directory; it never
// crashes the run.
type RefValidator struct {
	Command string        // tool binary; DefaultCommand when empty
	Args    []string      // extra arguments placed before "validate"
	Timeout time.Duration // per-invocation wall clock limit; DefaultTimeout when zero
}

// Validate runs the external tool against one skill directory.
func (v *RefValidator) Validate(ctx context.Context, u Unit) Result {
	fail := func(is issue.Issue) Result {
		return Result{SkillPath: u.Path, Status: StatusFail, Issues: []issue.Issue{is}}
	}

	// The tool requires SKILL.md; report its absence directly instead of
	// paying for a doomed subprocess.
	if _, err := os.Stat(filepath.Join(u.Dir, "SKILL.md")); err != nil {
		return fail(issue.Error(u.Path, "", "SKILL.md not found"))
	}

	command := v.Command
	if command == "" {
		command = DefaultCommand
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bin, err := exec.LookPath(command)
	if err != nil {
		return fail(issue.Error(u.Path, "",
			fmt.Sprintf("%s not found on PATH", command)).
			WithFix(fmt.Sprintf("install %s or point --skills-ref at the validator binary", command)))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, v.Args...), "validate", u.Dir)
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	switch {
	case err == nil:
		return Result{SkillPath: u.Path, Status: StatusPass}
	case ctx.Err() == context.DeadlineExceeded:
		return fail(issue.Error(u.Path, "",
			fmt.Sprintf("%s validation timed out after %s", command, timeout)))
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := fmt.Sprintf("%s validation failed (exit %d)", command, exitErr.ExitCode())
			if detail := toolOutput(stdout.String(), stderr.String()); detail != "" {
				msg += ": " + detail
			}
			return fail(issue.Error(u.Path, "", msg))
		}
		return fail(issue.Error(u.Path, "", fmt.Sprintf("running %s: %v", command, err)))
	}
}

// toolOutput condenses a failed invocation's stdout/stderr into one line.
func toolOutput(stdout, stderr string) string {
	combined := strings.TrimSpace(strings.TrimSpace(stdout) + "\n" + strings.TrimSpace(stderr))
	combined = strings.Join(strings.Fields(combined), " ")
	const limit = 400
	if len(combined) > limit {
		combined = combined[:limit] + "..."
	}
	return combined
}
