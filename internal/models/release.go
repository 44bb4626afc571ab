package models

import (
	"fmt"
	"time"
)

// RegistryTagLen is the number of commit-hash characters used for
// registry-qualified image tags.
const RegistryTagLen = 8

// LocalTagLen is the number of commit-hash characters used for the
// unqualified local image tags.
const LocalTagLen = 7

// Revision identifies the source state an image is built from.
type Revision struct {
	Hash    string // full commit hash
	Summary string // first line of the commit message, for logging
}

// Short returns the first n characters of the commit hash. If the hash is
// shorter than n, the whole hash is returned.
func (r Revision) Short(n int) string {
	if len(r.Hash) < n {
		return r.Hash
	}
	return r.Hash[:n]
}

// RegistryTag is the tag applied to registry-qualified image names.
func (r Revision) RegistryTag() string {
	return r.Short(RegistryTagLen)
}

// LocalTag is the tag applied to the unqualified local image names.
func (r Revision) LocalTag() string {
	return r.Short(LocalTagLen)
}

// ImageRef is a fully or partially qualified container image reference.
type ImageRef struct {
	Registry   string // registry host, empty for local-only references
	Repository string
	Tag        string
}

func (i ImageRef) String() string {
	if i.Registry == "" {
		return fmt.Sprintf("%s:%s", i.Repository, i.Tag)
	}
	return fmt.Sprintf("%s/%s:%s", i.Registry, i.Repository, i.Tag)
}

// Image describes an image stored in the registry.
type Image struct {
	Tags     []string
	Digest   string
	SizeMB   float64
	PushedAt time.Time
}
