// Package git answers the two questions the deploy flow has for the working
// copy: what is HEAD, and is this a repository at all. It shells out to the
// git binary and never mutates repository state.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dev-edu1998/bia/internal/models"
)

// Source reads revision information from a git working copy.
type Source struct {
	dir string
}

// NewSource creates a Source rooted at dir. An empty dir means the current
// working directory.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Installed reports whether the git binary is on PATH.
func (s *Source) Installed() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is not installed: %w", err)
	}
	return nil
}

// InsideWorkTree reports whether dir is inside a git work tree.
func (s *Source) InsideWorkTree(ctx context.Context) error {
	out, err := s.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return fmt.Errorf("not inside a git repository: %w", err)
	}
	if out != "true" {
		return fmt.Errorf("not inside a git work tree (got %q)", out)
	}
	return nil
}

// HeadRevision resolves the current commit hash and its summary line.
func (s *Source) HeadRevision(ctx context.Context) (models.Revision, error) {
	hash, err := s.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return models.Revision{}, fmt.Errorf("resolving HEAD: %w", err)
	}

	// The summary is only used for log output; a failure here should not
	// block a deploy of a valid commit.
	summary, err := s.run(ctx, "log", "-1", "--pretty=%s")
	if err != nil {
		summary = ""
	}

	return models.Revision{Hash: hash, Summary: summary}, nil
}

func (s *Source) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
