package process

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// maxLineBytes caps one native chunk line; value-mode snapshots of long
// conversations can run to megabytes.
const maxLineBytes = 16 * 1024 * 1024

// stderrTailLines is how many recent stderr lines are kept for exit errors.
const stderrTailLines = 20

// lineResult carries one parsed chunk or a read failure from the pump.
type lineResult struct {
	chunk domain.Chunk
	err   error
}

// chunkStream adapts one command turn to ports.ChunkStream.
type chunkStream struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	lines  chan lineResult
	stderr *stderrWriter
	logger *slog.Logger

	waitOnce sync.Once
	waitErr  error
}

func newChunkStream(ctx context.Context, cancel context.CancelFunc, cmd *exec.Cmd, stdout io.Reader, stderr *stderrWriter, logger *slog.Logger) *chunkStream {
	s := &chunkStream{
		cancel: cancel,
		cmd:    cmd,
		lines:  make(chan lineResult),
		stderr: stderr,
		logger: logger,
	}
	go s.pump(ctx, stdout)
	return s
}

// pump reads stdout lines, parses each into a chunk, and feeds Next. Lines
// that are not JSON objects are skipped. The channel closes when stdout is
// exhausted.
func (s *chunkStream) pump(ctx context.Context, stdout io.Reader) {
	defer close(s.lines)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk domain.Chunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.logger.Debug("skipping malformed executor output", "err", err)
			continue
		}
		select {
		case s.lines <- lineResult{chunk: chunk}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case s.lines <- lineResult{err: err}:
		case <-ctx.Done():
		}
	}
}

// Next returns the next native chunk. It returns io.EOF after a clean exit
// and the exit failure, with a stderr tail, otherwise.
func (s *chunkStream) Next(ctx context.Context) (domain.Chunk, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-s.lines:
		if !ok {
			return nil, s.finish(ctx)
		}
		if res.err != nil {
			s.wait()
			return nil, fmt.Errorf("failed to read executor output: %w", res.err)
		}
		return res.chunk, nil
	}
}

// finish reaps the command once stdout is exhausted.
func (s *chunkStream) finish(ctx context.Context) error {
	s.wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.waitErr != nil {
		if tail := s.stderr.Tail(); tail != "" {
			return fmt.Errorf("executor exited: %v: %s", s.waitErr, tail)
		}
		return fmt.Errorf("executor exited: %w", s.waitErr)
	}
	return io.EOF
}

// Close kills the command if it is still running and reaps it. Safe to call
// more than once.
func (s *chunkStream) Close() error {
	s.cancel()
	s.wait()
	return nil
}

func (s *chunkStream) wait() {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
}

// stderrWriter forwards complete diagnostic lines to the logger and keeps a
// bounded tail for exit errors. The exec copy goroutine is the only writer;
// Tail may be called from the consumer side, hence the mutex.
type stderrWriter struct {
	logger *slog.Logger

	mu   sync.Mutex
	line bytes.Buffer
	tail []string
}

func (w *stderrWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range p {
		if b == '\n' {
			w.flushLine()
			continue
		}
		w.line.WriteByte(b)
	}
	return len(p), nil
}

// flushLine records the buffered line. Callers must hold mu.
func (w *stderrWriter) flushLine() {
	line := strings.TrimRight(w.line.String(), "\r")
	w.line.Reset()
	if line == "" {
		return
	}
	w.logger.Debug("executor stderr", "line", line)
	w.tail = append(w.tail, line)
	if len(w.tail) > stderrTailLines {
		w.tail = w.tail[1:]
	}
}

// Tail returns the most recent stderr lines for error context.
func (w *stderrWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.line.Len() > 0 {
		w.flushLine()
	}
	return strings.Join(w.tail, "\n")
}
