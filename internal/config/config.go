package config

// Config is the effective deployment configuration, built once by the CLI
// layer from defaults, the project file, an optional profile and flags, then
// passed by value into every component.
type Config struct {
	Region  string
	Cluster string
	Service string
	Family  string
	ECRRepo string

	// LocalRepo is the unqualified image name the build also tags, so the
	// image stays addressable without the registry prefix.
	LocalRepo string

	ContextDir string
	Dockerfile string

	// Tag is the rollback target; empty for every other verb.
	Tag string

	LogLevel string
}

// Default returns the built-in configuration for the bia application.
func Default() Config {
	return Config{
		Region:     "us-east-1",
		Cluster:    "cluster-bia",
		Service:    "service-bia",
		Family:     "task-def-bia",
		ECRRepo:    "bia-app",
		LocalRepo:  "bia-app",
		ContextDir: ".",
		Dockerfile: "Dockerfile",
		LogLevel:   "info",
	}
}

// Overlay describes a partial configuration from a project file or profile.
// Zero-valued fields leave the base untouched.
type Overlay struct {
	Region     string `toml:"region" yaml:"region"`
	Cluster    string `toml:"cluster" yaml:"cluster"`
	Service    string `toml:"service" yaml:"service"`
	Family     string `toml:"family" yaml:"family"`
	ECRRepo    string `toml:"ecr_repo" yaml:"ecr_repo"`
	LocalRepo  string `toml:"local_repo" yaml:"local_repo"`
	ContextDir string `toml:"context" yaml:"context"`
	Dockerfile string `toml:"dockerfile" yaml:"dockerfile"`
	LogLevel   string `toml:"log_level" yaml:"log_level"`
}

// Apply returns c with every non-empty overlay field substituted.
func (c Config) Apply(o Overlay) Config {
	if o.Region != "" {
		c.Region = o.Region
	}
	if o.Cluster != "" {
		c.Cluster = o.Cluster
	}
	if o.Service != "" {
		c.Service = o.Service
	}
	if o.Family != "" {
		c.Family = o.Family
	}
	if o.ECRRepo != "" {
		c.ECRRepo = o.ECRRepo
	}
	if o.LocalRepo != "" {
		c.LocalRepo = o.LocalRepo
	}
	if o.ContextDir != "" {
		c.ContextDir = o.ContextDir
	}
	if o.Dockerfile != "" {
		c.Dockerfile = o.Dockerfile
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	return c
}
