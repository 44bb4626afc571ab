// Package docker wraps the docker CLI for the build, login and push
// operations the deploy flow needs. Build output streams to the operator's
// terminal; quiet commands capture stderr into the returned error.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Engine invokes the docker binary.
type Engine struct {
	// Stdout and Stderr receive build and push output. They default to the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewEngine creates an Engine writing to the process stdout/stderr.
func NewEngine() *Engine {
	return &Engine{Stdout: os.Stdout, Stderr: os.Stderr}
}

// BuildOptions configures a single docker build invocation.
type BuildOptions struct {
	ContextDir string
	Dockerfile string
	// Tags are all applied in the one invocation.
	Tags []string
}

// BuildArgs assembles the argument list for docker build.
func BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}
	for _, tag := range opts.Tags {
		args = append(args, "-t", tag)
	}
	if opts.Dockerfile != "" && opts.Dockerfile != "Dockerfile" {
		args = append(args, "-f", opts.Dockerfile)
	}
	ctxDir := opts.ContextDir
	if ctxDir == "" {
		ctxDir = "."
	}
	return append(args, ctxDir)
}

// Installed reports whether the docker binary is on PATH.
func (e *Engine) Installed() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker is not installed: %w", err)
	}
	return nil
}

// Ping checks that the docker daemon is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "version", "--format", "{{.Server.Version}}")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker daemon is not reachable: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Build builds an image from the context directory, applying every tag in
// one invocation.
func (e *Engine) Build(ctx context.Context, opts BuildOptions) error {
	cmd := exec.CommandContext(ctx, "docker", BuildArgs(opts)...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("building image: %w", err)
	}
	return nil
}

// Login authenticates the engine against a registry host. The password goes
// through stdin so it never appears in the process table.
func (e *Engine) Login(ctx context.Context, host, username, password string) error {
	cmd := exec.CommandContext(ctx, "docker", "login", "--username", username, "--password-stdin", host)
	cmd.Stdin = strings.NewReader(password)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("logging in to %s: %w: %s", host, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Push pushes one tagged reference to its registry.
func (e *Engine) Push(ctx context.Context, ref string) error {
	cmd := exec.CommandContext(ctx, "docker", "push", ref)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pushing %s: %w", ref, err)
	}
	return nil
}
