package hookpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitrelay/gitrelay/internal/aclconfig"
	"github.com/gitrelay/gitrelay/internal/fsutil"
	"github.com/gitrelay/gitrelay/internal/metrics"
)

// IsStockHooksDir reports whether hooksDir holds at least one file and
// nothing but Git's own *.sample placeholders — the precondition for
// self-install being safe. An empty hooks directory is not stock.
func IsStockHooksDir(hooksDir string) (bool, error) {
	entries, err := os.ReadDir(hooksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", hooksDir, err)
	}

	hasAny, err := fsutil.ContainsFiles(os.DirFS(hooksDir))
	if err != nil || !hasAny {
		return false, err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".sample") {
			return false, nil
		}
	}
	return true, nil
}

// SelfInstall atomically rewires gitDir's hooks/ directory to point at
// invokerHooksDir, the directory this hook-pipeline binary was invoked
// from, provided the repository's current hooks/ is stock and not
// already a symlink (to anywhere). On success it also bootstraps
// acl.writers to key if the repo has never set it.
func SelfInstall(ctx context.Context, gitDir, invokerHooksDir string, pid int, key string) error {
	hooksDir := filepath.Join(gitDir, "hooks")

	if link, err := os.Readlink(hooksDir); err == nil {
		if link == invokerHooksDir {
			return nil // already wired in
		}
		return nil // symlinked elsewhere; never clobber an existing install
	}

	stock, err := IsStockHooksDir(hooksDir)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", hooksDir, err)
	}
	if !stock {
		return nil
	}

	aside := fmt.Sprintf("%s.%d.PLEASE_DELETE", hooksDir, pid)
	if err := os.Rename(hooksDir, aside); err != nil {
		return fmt.Errorf("move stock hooks dir aside: %w", err)
	}
	if err := os.Symlink(invokerHooksDir, hooksDir); err != nil {
		return fmt.Errorf("symlink hooks dir to %s: %w", invokerHooksDir, err)
	}

	cfg, err := aclconfig.Load(ctx, gitDir)
	if err == nil && !cfg.HasWriters() {
		_ = aclconfig.Set(ctx, gitDir, "acl.writers", key)
	}

	metrics.SelfInstallCount.Inc()
	return nil
}
