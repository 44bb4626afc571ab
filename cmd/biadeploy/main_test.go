package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dev-edu1998/bia/internal/models"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(append([]string{"biadeploy"}, args...))
	return out.String(), err
}

func TestHelpExitsCleanly(t *testing.T) {
	out, err := runApp(t, "help")
	if err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	for _, verb := range []string{"deploy", "build", "push", "update-service", "rollback", "list-images"} {
		if !strings.Contains(out, verb) {
			t.Errorf("usage text missing verb %q", verb)
		}
	}
}

func TestMissingVerb(t *testing.T) {
	out, err := runApp(t)
	if err == nil {
		t.Fatal("expected usage error for missing verb")
	}

	var relErr *models.ReleaseError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrUsage {
		t.Errorf("unexpected error %v", err)
	}
	if !strings.Contains(out, "USAGE") {
		t.Errorf("usage text not shown:\n%s", out)
	}
}

func TestUnknownVerb(t *testing.T) {
	_, err := runApp(t, "destroy")
	if err == nil {
		t.Fatal("expected usage error for unknown verb")
	}

	var relErr *models.ReleaseError
	if !errors.As(err, &relErr) || relErr.Type != models.ErrUsage {
		t.Errorf("unexpected error %v", err)
	}
}

func TestUnknownFlag(t *testing.T) {
	// The flag parser rejects this before the verb action ever runs, so no
	// external call can happen.
	_, err := runApp(t, "deploy", "--bogus")
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
