package booking

import (
	"os"
	"path/filepath"
)

// ArtifactStore removes stored upload artifacts such as payment reference
// images.  Removal happens after the owning transaction commits.
type ArtifactStore interface {
	Remove(name string) error
}

// DiskArtifacts stores artifacts as plain files under Dir.
type DiskArtifacts struct {
	Dir string
}

// Remove deletes the named artifact.  A missing file is not an error; the
// artifact may already be gone.
func (d DiskArtifacts) Remove(name string) error {
	if name == "" {
		return nil
	}
	// Base strips any path components so a stored name can never escape Dir.
	err := os.Remove(filepath.Join(d.Dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
