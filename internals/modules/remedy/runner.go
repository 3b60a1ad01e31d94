package remedy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/rs/zerolog"
)

var (
	unitTestLineRe = regexp.MustCompile(`(?i)(jest|vitest|mocha|pytest|unit test|tests? passed|tests? failed|\bPASS\b|\bFAIL\b)`)
	benignStderrRe = regexp.MustCompile(`(?i)^(cloning into|switched to a new branch|remote:|to https?://|\* \[new branch\]|task started:)`)
)

// Runner supervises one external agent process per call: spawns it, streams
// both output pipes line by line into the sink, and returns the full stdout
// once the process exits cleanly.
type Runner struct {
	sink   *LogSink
	logger *zerolog.Logger
}

func NewRunner(sink *LogSink, logger *zerolog.Logger) *Runner {
	return &Runner{
		sink:   sink,
		logger: logger,
	}
}

// Run executes name with args under ctx. The context deadline is the job
// timeout: expiry kills the process. extraEnv entries are appended to the
// child environment; callers use this for credentials so they stay out of
// argv and logs.
func (r *Runner) Run(ctx context.Context, jobID, repo, name string, args []string, extraEnv []string) (string, error) {
	const op string = "remedy.runner.run"

	cmd := exec.CommandContext(ctx, name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Environ(), extraEnv...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", apperror.New(apperror.Internal, op, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", apperror.New(apperror.Internal, op, err)
	}

	if err := cmd.Start(); err != nil {
		return "", apperror.New(apperror.Internal, op, err)
	}

	var (
		output strings.Builder
		wg     sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			raw := scanner.Text()
			output.WriteString(raw)
			output.WriteByte('\n')

			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			r.sink.Publish(ctx, classifyStdout(jobID, repo, line))
		}
		// A line over the scanner buffer aborts line streaming; keep
		// draining raw so the child never blocks on a full pipe and the
		// marker scan still sees the rest of the output.
		if err := scanner.Err(); err != nil {
			r.sink.Publish(ctx, LogEntry{
				Level: "error", Stage: "agent", JobID: jobID, Repo: repo,
				Message: fmt.Sprintf("stdout streaming aborted: %v", err),
			})
			_, _ = io.Copy(&output, stdout)
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			r.sink.Publish(ctx, classifyStderr(jobID, repo, line))
		}
		if err := scanner.Err(); err != nil {
			_, _ = io.Copy(io.Discard, stderr)
		}
	}()

	wg.Wait()
	err = cmd.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		return "", &apperror.Error{
			Kind:    apperror.RemediationFailed,
			Op:      op,
			Err:     ctx.Err(),
			Message: "job timed out, process killed",
		}
	}
	if err != nil {
		r.sink.Publish(context.WithoutCancel(ctx), LogEntry{
			Level:   "error",
			Stage:   "agent",
			JobID:   jobID,
			Repo:    repo,
			Message: fmt.Sprintf("script exited with error: %v", err),
		})
		return "", &apperror.Error{
			Kind:    apperror.RemediationFailed,
			Op:      op,
			Err:     err,
			Message: fmt.Sprintf("script failed: %v", err),
		}
	}

	return output.String(), nil
}

func classifyStdout(jobID, repo, line string) LogEntry {
	entry := LogEntry{
		Level:    "info",
		Stage:    "agent",
		Category: "runtime",
		JobID:    jobID,
		Repo:     repo,
		Message:  line,
	}
	if unitTestLineRe.MatchString(line) {
		entry.Stage = "tests"
		entry.Category = "unit_test"
	}
	return entry
}

func classifyStderr(jobID, repo, line string) LogEntry {
	entry := classifyStdout(jobID, repo, line)
	if entry.Category != "unit_test" && !benignStderrRe.MatchString(line) {
		entry.Level = "error"
	}
	return entry
}
