package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// ErrInvalidID means the scenario id failed validation; checked before
	// any filesystem access so hostile ids never form a path.
	ErrInvalidID = errors.New("invalid scenario id")
	// ErrNotFound means the id is well-formed but no asset file exists.
	ErrNotFound = errors.New("scenario database not found")
	// ErrMisconfigured means the deployment is broken: the asset directory
	// is missing, or the file exists but is empty.
	ErrMisconfigured = errors.New("asset storage misconfigured")
)

var scenarioIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Resolver locates scenario database files under a fixed base directory.
// Callers never control the directory, only the sanitized id.
type Resolver struct {
	dir string
}

func NewResolver(dir string) *Resolver {
	return &Resolver{dir: filepath.Clean(dir)}
}

// Dir returns the base directory assets are served from.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve validates the scenario id and returns the path of its database
// file, ready to be streamed byte-for-byte.
func (r *Resolver) Resolve(scenarioID string) (string, error) {
	if !scenarioIDPattern.MatchString(scenarioID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, scenarioID)
	}

	if fi, err := os.Stat(r.dir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: asset directory %s missing", ErrMisconfigured, r.dir)
	}

	path := filepath.Join(r.dir, scenarioID+".db")
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, scenarioID)
		}
		return "", fmt.Errorf("stat asset %s: %w", path, err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, scenarioID)
	}
	// a present-but-empty file is a broken deployment, not a missing asset
	if fi.Size() == 0 {
		return "", fmt.Errorf("%w: asset %s is empty", ErrMisconfigured, path)
	}

	return path, nil
}
