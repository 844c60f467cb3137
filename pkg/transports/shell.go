// Package transports defines the command transport the execution engine uses
// to act on a node: spawn a command, manage files, stat paths. The scheduler
// stays agnostic to the concrete transport; implementations exist for the
// local machine and for SSH targets.
package transports

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

// ExecResult is the outcome of one spawned command. A non-zero exit code is
// a workload-level failure, not a transport error.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// FileInfo describes a path on the target.
type FileInfo struct {
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// Shell runs commands and manages files on one node.
type Shell interface {
	// Spawn runs a command and waits for it. The returned error is a
	// transport error; the command's own failure is reported through
	// ExecResult.ExitCode.
	Spawn(ctx context.Context, cmd string) (*ExecResult, error)

	// Mkdir creates a directory and any missing parents.
	Mkdir(ctx context.Context, path string) error

	// Exists reports whether the path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Remove deletes a path. Removing a missing path is not an error.
	Remove(ctx context.Context, path string) error

	// Chmod sets permissions on a path.
	Chmod(ctx context.Context, path string, mode fs.FileMode) error

	// Stat describes a path.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Copy transfers a local file to the target path.
	Copy(ctx context.Context, localPath, targetPath string) error

	// Close releases the transport's resources.
	Close() error
}

// TransportError wraps a failure of the transport itself, distinguishable
// from a workload failure observed through the transport.
type TransportError struct {
	// Op is the operation that failed, e.g. "spawn" or "copy".
	Op string

	// Err is the underlying error.
	Err error

	// IsTemporary marks failures that may succeed on retry, such as a
	// dropped connection.
	IsTemporary bool
}

func (e *TransportError) Error() string {
	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether the error chain contains a transport
// error.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
