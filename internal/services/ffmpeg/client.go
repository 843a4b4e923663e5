package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"mediaconv/internal/logging"
	"mediaconv/internal/services"
)

var commandContext = exec.CommandContext

const defaultStderrTail = 10

// Request describes one conversion.
type Request struct {
	Input      string
	Output     string
	VideoCodec string
	Threads    int
	Overwrite  bool
	// Duration of the input, used to turn encoded time into a percentage.
	Duration time.Duration
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = strings.TrimSpace(binary)
		}
	}
}

// WithLogger sets the logger that receives stderr lines at verbose level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CLI) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStderrTail sets how many trailing stderr lines are kept for errors.
func WithStderrTail(lines int) Option {
	return func(c *CLI) {
		if lines > 0 {
			c.tail = lines
		}
	}
}

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary string
	logger *slog.Logger
	tail   int
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg", logger: logging.NewNop(), tail: defaultStderrTail}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Binary returns the executable this client runs.
func (c *CLI) Binary() string {
	return c.binary
}

// Args returns the ffmpeg argument list for req.
func Args(req Request) []string {
	overwrite := "-n"
	if req.Overwrite {
		overwrite = "-y"
	}
	args := []string{"-hide_banner", "-nostdin", overwrite, "-i", req.Input}
	if req.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(req.Threads))
	}
	if codec := strings.TrimSpace(req.VideoCodec); codec != "" {
		args = append(args, "-c:v", codec)
	}
	return append(args, "-progress", "pipe:1", "-nostats", req.Output)
}

// Convert runs ffmpeg for req and blocks until it exits. A zero exit status is
// success; progress is reported through fn as it arrives.
func (c *CLI) Convert(ctx context.Context, req Request, fn func(ProgressUpdate)) error {
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", "convert", "input and output paths required", nil)
	}

	cmd := commandContext(ctx, c.binary, Args(req)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrTransient, "ffmpeg", "stdout pipe", "", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return services.Wrap(services.ErrTransient, "ffmpeg", "stderr pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "start", c.binary, err)
	}

	tail := newTailBuffer(c.tail)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.drainStderr(ctx, stderr, tail)
	}()

	parseErr := ParseProgress(stdout, req.Duration, fn)
	if parseErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}
	wg.Wait()
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrTransient, "ffmpeg", "convert", "interrupted", ctxErr)
	}
	if waitErr != nil {
		detail := req.Input
		if lines := tail.String(); lines != "" {
			detail = fmt.Sprintf("%s: %s", req.Input, lines)
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "convert", detail, waitErr)
	}
	if parseErr != nil {
		logging.WarnWithContext(c.logger, "ffmpeg progress stream unreadable", "ffmpeg_progress",
			logging.Error(parseErr),
			logging.String(logging.FieldImpact, "progress reporting incomplete"),
		)
	}
	return nil
}

func (c *CLI) drainStderr(ctx context.Context, r io.Reader, tail *tailBuffer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail.Add(line)
		logging.Verbose(ctx, c.logger, "ffmpeg stderr", logging.String("line", line))
	}
	_, _ = io.Copy(io.Discard, r)
}

// tailBuffer keeps the last n lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	size  int
}

func newTailBuffer(size int) *tailBuffer {
	return &tailBuffer{size: size}
}

func (t *tailBuffer) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.size {
		t.lines = t.lines[len(t.lines)-t.size:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, " | ")
}
