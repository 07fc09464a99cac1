package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// safePath resolves p relative to root and verifies the result stays
// inside root. Symlinks are resolved before the containment check, so a
// workspace-internal link pointing outside does not pass.
func safePath(root, p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, p)
	}
	abs = filepath.Clean(abs)

	rootResolved, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	if resolved != rootResolved && !strings.HasPrefix(resolved, rootResolved+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", p)
	}
	return resolved, nil
}

// resolveExisting resolves symlinks in the longest existing ancestor of
// p and rejoins the remainder, so paths that do not exist yet (write
// targets) still resolve.
func resolveExisting(p string) (string, error) {
	suffix := ""
	for cur := p; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(cur), suffix)
		cur = parent
	}
}
