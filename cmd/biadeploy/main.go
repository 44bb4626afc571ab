package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/urfave/cli/v2"

	"github.com/dev-edu1998/bia/internal/config"
	"github.com/dev-edu1998/bia/internal/deploy"
	"github.com/dev-edu1998/bia/internal/docker"
	"github.com/dev-edu1998/bia/internal/ecr"
	"github.com/dev-edu1998/bia/internal/ecs"
	"github.com/dev-edu1998/bia/internal/git"
	"github.com/dev-edu1998/bia/internal/models"
)

// profilesEnv points at an alternative profiles.yaml location.
const profilesEnv = "BIADEPLOY_PROFILES"

func main() {
	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, aborting", "signal", sig)
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Usage: "AWS region"},
		&cli.StringFlag{Name: "cluster", Aliases: []string{"c"}, Usage: "ECS cluster name"},
		&cli.StringFlag{Name: "service", Aliases: []string{"s"}, Usage: "ECS service name"},
		&cli.StringFlag{Name: "family", Aliases: []string{"f"}, Usage: "task definition family"},
		&cli.StringFlag{Name: "ecr-repo", Aliases: []string{"e"}, Usage: "ECR repository name"},
		&cli.StringFlag{Name: "context", Usage: "docker build context directory", Value: "."},
		&cli.StringFlag{Name: "config", Usage: "path to the deploy.toml project file"},
		&cli.StringFlag{Name: "profile", Usage: "named profile from profiles.yaml"},
		&cli.StringFlag{Name: "log-level", Usage: "log level (debug, info, warn, error)"},
	}
}

func newApp() *cli.App {
	rollbackFlags := append(sharedFlags(),
		&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "previously pushed image tag to roll back to"},
	)

	app := &cli.App{
		Name:  "biadeploy",
		Usage: "build, push and roll out the bia application on Amazon ECS",
		// Errors are handled in main so every checked failure exits 1.
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			cli.ShowAppHelp(c)
			if c.Args().Present() {
				return models.NewReleaseError(models.ErrUsage, fmt.Errorf("unknown command %q", c.Args().First()))
			}
			return models.NewReleaseError(models.ErrUsage, errors.New("missing command"))
		},
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "build the current commit, push it and roll it out to the service",
				Flags: sharedFlags(),
				Action: verb(func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error {
					return r.Deploy(ctx)
				}),
			},
			{
				Name:  "build",
				Usage: "build and tag the image for the current commit",
				Flags: sharedFlags(),
				Action: verb(func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error {
					return r.Build(ctx)
				}),
			},
			{
				Name:  "push",
				Usage: "push the current commit's image tags to ECR",
				Flags: sharedFlags(),
				Action: verb(func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error {
					return r.Push(ctx)
				}),
			},
			{
				Name:  "update-service",
				Usage: "register a task definition for the current commit and update the service",
				Flags: sharedFlags(),
				Action: verb(func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error {
					return r.UpdateService(ctx)
				}),
			},
			{
				Name:  "rollback",
				Usage: "roll the service back to a previously pushed image tag",
				Flags: rollbackFlags,
				Action: verb(func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error {
					return r.Rollback(ctx, cfg.Tag)
				}),
			},
			{
				Name:  "list-images",
				Usage: "list the most recently pushed images in the repository",
				Flags: sharedFlags(),
				Action: verb(func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error {
					return r.ListImages(ctx)
				}),
			},
		},
	}
	return app
}

type verbFunc func(ctx context.Context, r *deploy.Releaser, cfg config.Config) error

// verb wraps a release operation with config resolution, collaborator
// construction and usage-error help text.
func verb(fn verbFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := resolveConfig(c)
		if err != nil {
			return err
		}
		setupLogging(cfg.LogLevel)

		r, err := newReleaser(c.Context, cfg)
		if err != nil {
			return err
		}

		err = fn(c.Context, r, cfg)

		var relErr *models.ReleaseError
		if errors.As(err, &relErr) && relErr.Type == models.ErrUsage {
			cli.ShowSubcommandHelp(c)
		}
		return err
	}
}

// resolveConfig layers defaults, the project file, an optional profile and
// the command-line flags into one immutable Config.
func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	cfg.ContextDir = c.String("context")

	projectPath := filepath.Join(cfg.ContextDir, config.ProjectFile)
	if c.IsSet("config") {
		projectPath = c.String("config")
	}
	overlay, found, err := config.LoadProject(os.DirFS(filepath.Dir(projectPath)), filepath.Base(projectPath))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("config") && !found {
		return cfg, models.NewReleaseError(models.ErrUsage, fmt.Errorf("project file %s not found", projectPath))
	}
	cfg = cfg.Apply(overlay)

	if c.IsSet("profile") {
		profilesPath := os.Getenv(profilesEnv)
		if profilesPath == "" {
			profilesPath = config.ProfilesFile
		}
		profiles, found, err := config.LoadProfiles(os.DirFS(filepath.Dir(profilesPath)), filepath.Base(profilesPath))
		if err != nil {
			return cfg, err
		}
		if !found {
			return cfg, models.NewReleaseError(models.ErrUsage, fmt.Errorf("profiles file %s not found", profilesPath))
		}
		selected, err := profiles.Select(c.String("profile"))
		if err != nil {
			return cfg, models.NewReleaseError(models.ErrUsage, err)
		}
		cfg = cfg.Apply(selected)
	}

	if c.IsSet("region") {
		cfg.Region = c.String("region")
	}
	if c.IsSet("cluster") {
		cfg.Cluster = c.String("cluster")
	}
	if c.IsSet("service") {
		cfg.Service = c.String("service")
	}
	if c.IsSet("family") {
		cfg.Family = c.String("family")
	}
	if c.IsSet("ecr-repo") {
		cfg.ECRRepo = c.String("ecr-repo")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	cfg.Tag = c.String("tag")

	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func newReleaser(ctx context.Context, cfg config.Config) (*deploy.Releaser, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return deploy.New(
		cfg,
		git.NewSource(cfg.ContextDir),
		docker.NewEngine(),
		ecr.New(awsCfg),
		ecs.New(awsCfg),
	), nil
}
