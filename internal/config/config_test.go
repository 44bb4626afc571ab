package config_test

import (
	"testing"
	"testing/fstest"

	"github.com/dev-edu1998/bia/internal/config"
)

func TestLoadProject(t *testing.T) {
	deployToml := `region = "us-west-2"
cluster = "cluster-bia-alb"
service = "service-bia-alb"
family = "task-def-bia-alb"
ecr_repo = "bia-alb"
`

	fsys := fstest.MapFS{
		"deploy.toml": &fstest.MapFile{Data: []byte(deployToml)},
	}

	o, found, err := config.LoadProject(fsys, config.ProjectFile)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if !found {
		t.Fatal("expected project file to be found")
	}

	cfg := config.Default().Apply(o)

	if cfg.Region != "us-west-2" {
		t.Errorf("expected region us-west-2, got %s", cfg.Region)
	}
	if cfg.Cluster != "cluster-bia-alb" {
		t.Errorf("expected cluster cluster-bia-alb, got %s", cfg.Cluster)
	}
	if cfg.Service != "service-bia-alb" {
		t.Errorf("expected service service-bia-alb, got %s", cfg.Service)
	}
	if cfg.Family != "task-def-bia-alb" {
		t.Errorf("expected family task-def-bia-alb, got %s", cfg.Family)
	}
	if cfg.ECRRepo != "bia-alb" {
		t.Errorf("expected ecr repo bia-alb, got %s", cfg.ECRRepo)
	}

	// Fields the file does not set keep their defaults.
	if cfg.LocalRepo != "bia-app" {
		t.Errorf("expected local repo bia-app, got %s", cfg.LocalRepo)
	}
	if cfg.Dockerfile != "Dockerfile" {
		t.Errorf("expected Dockerfile, got %s", cfg.Dockerfile)
	}
}

func TestLoadProjectMissing(t *testing.T) {
	_, found, err := config.LoadProject(fstest.MapFS{}, config.ProjectFile)
	if err != nil {
		t.Fatalf("missing project file should not error: %v", err)
	}
	if found {
		t.Error("expected found=false for missing project file")
	}
}

func TestLoadProjectUnknownKey(t *testing.T) {
	fsys := fstest.MapFS{
		"deploy.toml": &fstest.MapFile{Data: []byte("regionn = \"us-east-1\"\n")},
	}

	if _, _, err := config.LoadProject(fsys, config.ProjectFile); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestProfiles(t *testing.T) {
	profilesYaml := `staging:
  cluster: cluster-bia-staging
  service: service-bia-staging
prod:
  region: sa-east-1
  cluster: cluster-bia
`

	fsys := fstest.MapFS{
		"profiles.yaml": &fstest.MapFile{Data: []byte(profilesYaml)},
	}

	profiles, found, err := config.LoadProfiles(fsys, config.ProfilesFile)
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}
	if !found {
		t.Fatal("expected profiles file to be found")
	}

	o, err := profiles.Select("staging")
	if err != nil {
		t.Fatalf("selecting staging: %v", err)
	}

	cfg := config.Default().Apply(o)
	if cfg.Cluster != "cluster-bia-staging" {
		t.Errorf("expected staging cluster, got %s", cfg.Cluster)
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("expected default region, got %s", cfg.Region)
	}

	if _, err := profiles.Select("qa"); err == nil {
		t.Error("expected error for unknown profile")
	}
}
