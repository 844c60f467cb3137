package transports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// LocalShell runs commands and file operations on the local machine. It
// backs the ready platform's local nodes and tests.
type LocalShell struct {
	log zerolog.Logger
}

// NewLocalShell creates a local shell.
func NewLocalShell(log zerolog.Logger) *LocalShell {
	return &LocalShell{log: log.With().Str("transport", "local").Logger()}
}

// Spawn implements Shell.
func (s *LocalShell) Spawn(ctx context.Context, cmd string) (*ExecResult, error) {
	start := time.Now()
	s.log.Debug().Str("command", cmd).Msg("spawning command")

	command := exec.CommandContext(ctx, "sh", "-c", cmd)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	result := &ExecResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// the command ran and failed; that is a workload outcome
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, &TransportError{Op: "spawn", Err: err}
	}
	return result, nil
}

// Mkdir implements Shell.
func (s *LocalShell) Mkdir(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &TransportError{Op: "mkdir", Err: err}
	}
	return nil
}

// Exists implements Shell.
func (s *LocalShell) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &TransportError{Op: "exists", Err: err}
}

// Remove implements Shell.
func (s *LocalShell) Remove(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return &TransportError{Op: "remove", Err: err}
	}
	return nil
}

// Chmod implements Shell.
func (s *LocalShell) Chmod(_ context.Context, path string, mode fs.FileMode) error {
	if err := os.Chmod(path, mode); err != nil {
		return &TransportError{Op: "chmod", Err: err}
	}
	return nil
}

// Stat implements Shell.
func (s *LocalShell) Stat(_ context.Context, path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &TransportError{Op: "stat", Err: err}
	}
	return &FileInfo{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Copy implements Shell.
func (s *LocalShell) Copy(_ context.Context, localPath, targetPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return &TransportError{Op: "copy", Err: err}
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return &TransportError{Op: "copy", Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return &TransportError{Op: "copy", Err: err}
	}
	return nil
}

// Close implements Shell.
func (s *LocalShell) Close() error {
	return nil
}
