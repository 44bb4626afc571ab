// Package deploy sequences the release verbs over the git, docker and AWS
// collaborators. Every external surface sits behind a small interface so the
// sequencing is testable without a network or a daemon.
package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dev-edu1998/bia/internal/config"
	"github.com/dev-edu1998/bia/internal/docker"
	"github.com/dev-edu1998/bia/internal/ecr"
	"github.com/dev-edu1998/bia/internal/models"
)

// listLimit caps list-images output.
const listLimit = 10

// Source reads revision information from the working copy.
type Source interface {
	Installed() error
	InsideWorkTree(ctx context.Context) error
	HeadRevision(ctx context.Context) (models.Revision, error)
}

// Engine builds, authenticates and pushes container images.
type Engine interface {
	Installed() error
	Ping(ctx context.Context) error
	Login(ctx context.Context, host, username, password string) error
	Build(ctx context.Context, opts docker.BuildOptions) error
	Push(ctx context.Context, ref string) error
}

// Registry answers registry queries and issues login credentials.
type Registry interface {
	Host(ctx context.Context) (string, error)
	Credentials(ctx context.Context) (ecr.Credential, error)
	RecentImages(ctx context.Context, repo string, limit int) ([]models.Image, error)
	TagExists(ctx context.Context, repo, tag string) (bool, error)
}

// Orchestrator mutates task definitions and services.
type Orchestrator interface {
	ReleaseRevision(ctx context.Context, family, image string) (string, error)
	PointService(ctx context.Context, cluster, service, taskDef string) error
	WaitStable(ctx context.Context, cluster, service string) error
}

// Releaser runs the release verbs. Each verb is a fixed sequence of blocking
// external calls; the first failure aborts with no cleanup of completed
// steps (registered revisions are immutable and inert until referenced).
type Releaser struct {
	cfg      config.Config
	src      Source
	engine   Engine
	registry Registry
	orch     Orchestrator
	out      io.Writer
}

// New creates a Releaser.
func New(cfg config.Config, src Source, engine Engine, registry Registry, orch Orchestrator) *Releaser {
	return &Releaser{
		cfg:      cfg,
		src:      src,
		engine:   engine,
		registry: registry,
		orch:     orch,
		out:      os.Stdout,
	}
}

// SetOutput redirects verb output (success messages, tables).
func (r *Releaser) SetOutput(w io.Writer) {
	r.out = w
}

// registryRefs returns the two registry-qualified references for a revision.
func (r *Releaser) registryRefs(host string, rev models.Revision) []models.ImageRef {
	return []models.ImageRef{
		{Registry: host, Repository: r.cfg.ECRRepo, Tag: rev.RegistryTag()},
		{Registry: host, Repository: r.cfg.ECRRepo, Tag: "latest"},
	}
}

// buildTags returns every tag one build invocation applies: the registry
// pair plus the unqualified local pair.
func (r *Releaser) buildTags(host string, rev models.Revision) []string {
	tags := make([]string, 0, 4)
	for _, ref := range r.registryRefs(host, rev) {
		tags = append(tags, ref.String())
	}
	tags = append(tags,
		models.ImageRef{Repository: r.cfg.LocalRepo, Tag: rev.LocalTag()}.String(),
		models.ImageRef{Repository: r.cfg.LocalRepo, Tag: "latest"}.String(),
	)
	return tags
}

// Deploy runs the full pipeline: preflight, resolve, login, build, push,
// register, update, wait.
func (r *Releaser) Deploy(ctx context.Context) error {
	if err := r.preflight(ctx, true, true); err != nil {
		return err
	}

	rev, err := r.src.HeadRevision(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrNotARepository, err)
	}
	slog.Info("deploying", "revision", rev.RegistryTag(), "commit", rev.Summary)

	cred, err := r.login(ctx)
	if err != nil {
		return err
	}

	if err := r.build(ctx, cred.Host, rev); err != nil {
		return err
	}
	if err := r.push(ctx, cred.Host, rev); err != nil {
		return err
	}

	image := models.ImageRef{Registry: cred.Host, Repository: r.cfg.ECRRepo, Tag: rev.RegistryTag()}
	if err := r.rollout(ctx, image); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "deployed %s (%s) to %s/%s\n", rev.RegistryTag(), rev.Summary, r.cfg.Cluster, r.cfg.Service)
	return nil
}

// Build builds and tags the image for the current commit without pushing.
func (r *Releaser) Build(ctx context.Context) error {
	if err := r.preflight(ctx, true, true); err != nil {
		return err
	}

	rev, err := r.src.HeadRevision(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrNotARepository, err)
	}

	host, err := r.registry.Host(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrRegistryAuthFailed, err)
	}

	if err := r.build(ctx, host, rev); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "built %s\n", rev.RegistryTag())
	return nil
}

// Push logs in and pushes the current commit's registry tags.
func (r *Releaser) Push(ctx context.Context) error {
	if err := r.preflight(ctx, true, true); err != nil {
		return err
	}

	rev, err := r.src.HeadRevision(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrNotARepository, err)
	}

	cred, err := r.login(ctx)
	if err != nil {
		return err
	}

	if err := r.push(ctx, cred.Host, rev); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "pushed %s\n", rev.RegistryTag())
	return nil
}

// UpdateService registers a new task-definition revision for the current
// commit's image and rolls the service onto it. The image is assumed pushed.
func (r *Releaser) UpdateService(ctx context.Context) error {
	if err := r.preflight(ctx, true, false); err != nil {
		return err
	}

	rev, err := r.src.HeadRevision(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrNotARepository, err)
	}

	host, err := r.registry.Host(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrRegistryAuthFailed, err)
	}

	image := models.ImageRef{Registry: host, Repository: r.cfg.ECRRepo, Tag: rev.RegistryTag()}
	if err := r.rollout(ctx, image); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "service %s updated to %s\n", r.cfg.Service, rev.RegistryTag())
	return nil
}

// Rollback re-points the service at a previously pushed tag. The tag must
// exist in the registry; the check happens before any mutation.
func (r *Releaser) Rollback(ctx context.Context, tag string) error {
	if tag == "" {
		return models.NewReleaseError(models.ErrUsage, fmt.Errorf("rollback requires --tag with a previously pushed image tag"))
	}

	ok, err := r.registry.TagExists(ctx, r.cfg.ECRRepo, tag)
	if err != nil {
		return models.NewReleaseError(models.ErrRegistryListFailed, err)
	}
	if !ok {
		return models.NewReleaseError(models.ErrTagNotFound,
			fmt.Errorf("tag %q not found in repository %s; run list-images to see what is available", tag, r.cfg.ECRRepo))
	}

	host, err := r.registry.Host(ctx)
	if err != nil {
		return models.NewReleaseError(models.ErrRegistryAuthFailed, err)
	}

	image := models.ImageRef{Registry: host, Repository: r.cfg.ECRRepo, Tag: tag}
	slog.Info("rolling back", "image", image.String())

	if err := r.rollout(ctx, image); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "rolled back %s to %s\n", r.cfg.Service, tag)
	return nil
}

// ListImages prints the most recent images in the repository. Read-only.
func (r *Releaser) ListImages(ctx context.Context) error {
	images, err := r.registry.RecentImages(ctx, r.cfg.ECRRepo, listLimit)
	if err != nil {
		return models.NewReleaseError(models.ErrRegistryListFailed, err)
	}
	renderImages(r.out, images)
	return nil
}

func (r *Releaser) login(ctx context.Context) (ecr.Credential, error) {
	cred, err := r.registry.Credentials(ctx)
	if err != nil {
		return ecr.Credential{}, models.NewReleaseError(models.ErrRegistryAuthFailed, err)
	}
	if err := r.engine.Login(ctx, cred.Host, cred.Username, cred.Password); err != nil {
		return ecr.Credential{}, models.NewReleaseError(models.ErrRegistryAuthFailed, err)
	}
	return cred, nil
}

func (r *Releaser) build(ctx context.Context, host string, rev models.Revision) error {
	opts := docker.BuildOptions{
		ContextDir: r.cfg.ContextDir,
		Dockerfile: r.cfg.Dockerfile,
		Tags:       r.buildTags(host, rev),
	}
	slog.Info("building image", "tags", opts.Tags)
	if err := r.engine.Build(ctx, opts); err != nil {
		return models.NewReleaseError(models.ErrImageBuildFailed, err)
	}
	return nil
}

func (r *Releaser) push(ctx context.Context, host string, rev models.Revision) error {
	for _, ref := range r.registryRefs(host, rev) {
		slog.Info("pushing image", "ref", ref.String())
		if err := r.engine.Push(ctx, ref.String()); err != nil {
			return models.NewReleaseError(models.ErrImagePushFailed, err)
		}
	}
	return nil
}

// rollout registers a new task-definition revision for the image and blocks
// until the service is stable on it.
func (r *Releaser) rollout(ctx context.Context, image models.ImageRef) error {
	taskDef, err := r.orch.ReleaseRevision(ctx, r.cfg.Family, image.String())
	if err != nil {
		return models.NewReleaseError(models.ErrTaskDefinitionFailed, err)
	}
	slog.Info("registered task definition", "revision", taskDef)

	if err := r.orch.PointService(ctx, r.cfg.Cluster, r.cfg.Service, taskDef); err != nil {
		return models.NewReleaseError(models.ErrServiceUpdateFailed, err)
	}

	slog.Info("waiting for service to stabilize", "cluster", r.cfg.Cluster, "service", r.cfg.Service)
	if err := r.orch.WaitStable(ctx, r.cfg.Cluster, r.cfg.Service); err != nil {
		return models.NewReleaseError(models.ErrServiceNotStable, err)
	}
	return nil
}
