// Package ssh implements the command transport over SSH, with file
// operations carried by SFTP on the same connection.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/arbal/LISAv2/pkg/transports"
)

// Shell is the SSH implementation of transports.Shell. It connects lazily on
// first use and keeps one connection plus one SFTP session.
type Shell struct {
	config *Config
	log    zerolog.Logger

	mu     sync.Mutex
	client *ssh.Client
	sftp   *sftp.Client
}

// NewShell creates an SSH shell for the given target.
func NewShell(config *Config, log zerolog.Logger) (*Shell, error) {
	if err := config.Validate(); err != nil {
		return nil, &transports.TransportError{Op: "config", Err: err}
	}
	return &Shell{
		config: config,
		log:    log.With().Str("transport", "ssh").Str("host", config.Host).Logger(),
	}, nil
}

// Connect establishes the SSH and SFTP sessions. Calling Connect on a live
// shell is a no-op.
func (s *Shell) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Shell) connectLocked(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	clientConfig, err := s.config.buildClientConfig()
	if err != nil {
		return &transports.TransportError{Op: "connect", Err: err}
	}

	s.log.Debug().Str("address", s.config.Address()).Msg("establishing connection")

	type dialResult struct {
		client *ssh.Client
		err    error
	}
	done := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial("tcp", s.config.Address(), clientConfig)
		done <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		return &transports.TransportError{Op: "connect", Err: ctx.Err(), IsTemporary: true}
	case res := <-done:
		if res.err != nil {
			return &transports.TransportError{Op: "connect", Err: res.err, IsTemporary: true}
		}
		s.client = res.client
	}

	sftpClient, err := sftp.NewClient(s.client)
	if err != nil {
		_ = s.client.Close()
		s.client = nil
		return &transports.TransportError{Op: "connect", Err: err, IsTemporary: true}
	}
	s.sftp = sftpClient
	return nil
}

// session returns a fresh exec session, connecting first if needed.
func (s *Shell) session(ctx context.Context) (*ssh.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}
	session, err := s.client.NewSession()
	if err != nil {
		return nil, &transports.TransportError{Op: "session", Err: err, IsTemporary: true}
	}
	return session, nil
}

func (s *Shell) files(ctx context.Context) (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}
	return s.sftp, nil
}

// Spawn implements transports.Shell.
func (s *Shell) Spawn(ctx context.Context, cmd string) (*transports.ExecResult, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	start := time.Now()
	s.log.Debug().Str("command", cmd).Msg("spawning command")

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	if err := session.Start(cmd); err != nil {
		return nil, &transports.TransportError{Op: "spawn", Err: err, IsTemporary: true}
	}
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return nil, &transports.TransportError{Op: "spawn", Err: ctx.Err(), IsTemporary: true}
	case err = <-done:
	}

	result := &transports.ExecResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitStatus()
	default:
		return nil, &transports.TransportError{Op: "spawn", Err: err, IsTemporary: true}
	}
	return result, nil
}

// Mkdir implements transports.Shell.
func (s *Shell) Mkdir(ctx context.Context, path string) error {
	files, err := s.files(ctx)
	if err != nil {
		return err
	}
	if err := files.MkdirAll(path); err != nil {
		return &transports.TransportError{Op: "mkdir", Err: err}
	}
	return nil
}

// Exists implements transports.Shell.
func (s *Shell) Exists(ctx context.Context, path string) (bool, error) {
	files, err := s.files(ctx)
	if err != nil {
		return false, err
	}
	if _, err := files.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &transports.TransportError{Op: "exists", Err: err}
	}
	return true, nil
}

// Remove implements transports.Shell.
func (s *Shell) Remove(ctx context.Context, path string) error {
	files, err := s.files(ctx)
	if err != nil {
		return err
	}
	if err := files.RemoveAll(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &transports.TransportError{Op: "remove", Err: err}
	}
	return nil
}

// Chmod implements transports.Shell.
func (s *Shell) Chmod(ctx context.Context, path string, mode fs.FileMode) error {
	files, err := s.files(ctx)
	if err != nil {
		return err
	}
	if err := files.Chmod(path, mode); err != nil {
		return &transports.TransportError{Op: "chmod", Err: err}
	}
	return nil
}

// Stat implements transports.Shell.
func (s *Shell) Stat(ctx context.Context, path string) (*transports.FileInfo, error) {
	files, err := s.files(ctx)
	if err != nil {
		return nil, err
	}
	info, err := files.Stat(path)
	if err != nil {
		return nil, &transports.TransportError{Op: "stat", Err: err}
	}
	return &transports.FileInfo{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Copy implements transports.Shell.
func (s *Shell) Copy(ctx context.Context, localPath, targetPath string) error {
	files, err := s.files(ctx)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return &transports.TransportError{Op: "copy", Err: err}
	}
	defer src.Close()

	dst, err := files.Create(targetPath)
	if err != nil {
		return &transports.TransportError{Op: "copy", Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return &transports.TransportError{Op: "copy", Err: err}
	}
	return nil
}

// Close implements transports.Shell.
func (s *Shell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.sftp != nil {
		errs = append(errs, s.sftp.Close())
		s.sftp = nil
	}
	if s.client != nil {
		errs = append(errs, s.client.Close())
		s.client = nil
	}
	return errors.Join(errs...)
}
