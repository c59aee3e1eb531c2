package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/giantswarm/dynamodblocal/internal/sentinel"
)

// ErrTargetNotDir is returned when the install target exists but is not a
// directory. The caller must delete it or choose another target.
const ErrTargetNotDir = sentinel.Error("install target exists but is not a directory")

// ErrPathTraversal is returned when an archive entry would resolve outside
// the target directory. The whole installation is aborted and cleaned up.
const ErrPathTraversal = sentinel.Error("archive entry escapes target directory")

// Config holds the configuration for an installation.
type Config struct {
	// SourceURL is the location of the gzip-compressed tar archive.
	SourceURL string

	// TargetDir is the directory that will hold the unpacked distributable.
	// Its presence is the "installed" marker: an existing directory is
	// trusted as a complete install and never re-downloaded or verified.
	TargetDir string

	// Client is the HTTP client used for the download. Optional; a default
	// resty client is created when nil. Injected by tests.
	Client *resty.Client

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// EnsureInstalled guarantees that after a nil return, TargetDir contains a
// fully extracted copy of the distributable. On error the directory is left
// absent, never partially populated.
//
// Idempotence is by presence check only: if TargetDir already exists as a
// directory it is treated as installed and the function returns immediately.
// A cross-process file lock next to the target serializes concurrent
// installs into the same directory, so only one downloader runs and the
// others observe the finished install.
func EnsureInstalled(ctx context.Context, cfg Config) error {
	if cfg.SourceURL == "" {
		return errors.New("source URL must not be empty")
	}
	if cfg.TargetDir == "" {
		return errors.New("target directory must not be empty")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	target, err := filepath.Abs(cfg.TargetDir)
	if err != nil {
		return fmt.Errorf("resolve target directory: %w", err)
	}

	// Fast path without the lock: a finished install never changes again.
	if installed, err := checkInstalled(target, log); installed || err != nil {
		return err
	}

	// The lock file lives next to the target, not inside it, because the
	// directory itself is the installed marker and is removed on failure.
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent of target directory: %w", err)
	}
	fl, err := acquireFileLock(ctx, target+".lock")
	if err != nil {
		return err
	}
	defer releaseFileLock(log, fl)

	// Re-check under the lock: another process may have completed the
	// install while we waited.
	if installed, err := checkInstalled(target, log); installed || err != nil {
		return err
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := downloadAndExtract(ctx, cfg, target, log); err != nil {
		// A failed install must not masquerade as a successful one on
		// retry, so the presence marker is removed before the error
		// propagates.
		if rmErr := os.RemoveAll(target); rmErr != nil {
			log.Warn("cleanup of failed install left residue", "dir", target, "error", rmErr)
		}
		return err
	}
	log.Info("installed emulator distributable", "dir", target, "source", cfg.SourceURL)
	return nil
}

// checkInstalled reports whether target already exists as a directory.
// A non-directory at the target path is a configuration error.
func checkInstalled(target string, log *slog.Logger) (bool, error) {
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat target directory: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("target %s: %w", target, ErrTargetNotDir)
	}
	log.Debug("target directory already exists, treating as installed", "dir", target)
	return true, nil
}

// downloadAndExtract streams the archive and unpacks it entry by entry into
// target. The response body is never buffered to disk.
func downloadAndExtract(ctx context.Context, cfg Config, target string, log *slog.Logger) error {
	client := cfg.Client
	if client == nil {
		client = resty.New()
	}

	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(cfg.SourceURL)
	if err != nil {
		return fmt.Errorf("download %s: %w", cfg.SourceURL, err)
	}
	body := resp.RawBody()
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			log.Debug("close download body", "error", closeErr)
		}
	}()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("download %s: unexpected status %s", cfg.SourceURL, resp.Status())
	}

	gzr, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() {
		_ = gzr.Close()
	}()

	return extract(tar.NewReader(gzr), target)
}

// extract unpacks every tar entry into target, rejecting any entry whose
// resolved path (or symlink destination) would land outside target.
func extract(tr *tar.Reader, target string) error {
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			// Raised by the reader when GODEBUG tarinsecurepath=0; fold it
			// into the same traversal condition as our own checks.
			return fmt.Errorf("read archive entry: %w: %w", err, ErrPathTraversal)
		}
		if err != nil {
			return fmt.Errorf("read archive entry: %w", err)
		}

		// filepath.Join would silently re-root an absolute name inside
		// target; the contract is to reject it instead.
		if filepath.IsAbs(hdr.Name) {
			return fmt.Errorf("entry %q: %w", hdr.Name, ErrPathTraversal)
		}
		dst := filepath.Join(target, hdr.Name) //nolint:gosec // G305: checked by isWithinDir below.
		if !isWithinDir(target, dst) {
			return fmt.Errorf("entry %q: %w", hdr.Name, ErrPathTraversal)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dst, dirMode(hdr)); err != nil {
				return fmt.Errorf("create directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := writeFile(tr, dst, hdr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			linkDst := hdr.Linkname
			if !filepath.IsAbs(linkDst) {
				linkDst = filepath.Join(filepath.Dir(dst), linkDst)
			}
			if !isWithinDir(target, linkDst) {
				return fmt.Errorf("symlink %q -> %q: %w", hdr.Name, hdr.Linkname, ErrPathTraversal)
			}
			if err := os.Symlink(hdr.Linkname, dst); err != nil {
				return fmt.Errorf("create symlink %s: %w", hdr.Name, err)
			}
		default:
			// Hard links, devices, FIFOs: nothing in the distributable
			// needs them; skip rather than fail on exotic entries.
		}
	}
}

// writeFile creates a regular file from the current tar entry, creating
// parent directories as needed (some archives omit directory entries).
func writeFile(tr *tar.Reader, dst string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", hdr.Name, err)
	}
	mode := hdr.FileInfo().Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode) //nolint:gosec // G304: dst is confined to the target directory.
	if err != nil {
		return fmt.Errorf("create file %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(f, tr); err != nil { //nolint:gosec // G110: archive comes from a caller-configured trusted URL.
		_ = f.Close()
		return fmt.Errorf("write file %s: %w", hdr.Name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", hdr.Name, err)
	}
	return nil
}

// dirMode returns the directory permission bits for a tar header, defaulting
// to 0755 when the archive recorded none.
func dirMode(hdr *tar.Header) os.FileMode {
	mode := hdr.FileInfo().Mode().Perm()
	if mode == 0 {
		return 0o755
	}
	return mode
}

// isWithinDir reports whether path resolves to dir or a descendant of it.
// Both arguments must be absolute. Comparison is lexical (the tar entry
// names are untrusted, but dir itself is trusted), matching on the cleaned
// path with a separator-aware prefix check.
func isWithinDir(dir, path string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
