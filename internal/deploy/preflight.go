package deploy

import (
	"context"

	"github.com/dev-edu1998/bia/internal/models"
)

// preflight verifies the external tools a verb is about to use. Checks are
// scoped: a verb never fails on a tool it would not invoke. Fail-fast, no
// retries.
func (r *Releaser) preflight(ctx context.Context, needGit, needDocker bool) error {
	if needGit {
		if err := r.src.Installed(); err != nil {
			return models.NewReleaseError(models.ErrToolMissing, err)
		}
		if err := r.src.InsideWorkTree(ctx); err != nil {
			return models.NewReleaseError(models.ErrNotARepository, err)
		}
	}
	if needDocker {
		if err := r.engine.Installed(); err != nil {
			return models.NewReleaseError(models.ErrToolMissing, err)
		}
		if err := r.engine.Ping(ctx); err != nil {
			return models.NewReleaseError(models.ErrDaemonUnreachable, err)
		}
	}
	return nil
}
