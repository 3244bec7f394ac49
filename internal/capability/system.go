package capability

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/event"
	"github.com/stamforge/modhost/internal/manifest"
)

// ModPackageInfo is the on-disk package summary get_mod_packages returns,
// distinct from manifest.Info (which is the runtime's live bookkeeping).
type ModPackageInfo struct {
	ModID string
	Side  manifest.Side
	Path  string
}

// AttachRequester attaches a mod-id at runtime. The per-game bootstrap
// driver (C11) supplies the implementation, which loads the mod and runs
// its onAttach (and, for a bootstrap-type mod, onBootstrap) before
// returning.
type AttachRequester func(ctx context.Context, modID string) error

// System implements the `system` capability for one game runtime.
type System struct {
	GameID     string
	Mods       func() []manifest.Info
	Packages   func(side manifest.Side) []ModPackageInfo
	Dispatcher *event.Dispatcher
	Attach     AttachRequester
	// InstallDir reports where install_mod_from_path should extract
	// archives, normally the server's configured mods directory.
	InstallDir func() string
	Exit       func(code int)
}

// GetMods returns every mod known to this game, sorted per spec.md §4.8
// (loaded first by ascending priority, then not-loaded by ascending
// priority).
func (s *System) GetMods() []manifest.Info {
	return manifest.SortForSystemAPI(s.Mods())
}

// GetModPackages lists the on-disk packages available for side.
func (s *System) GetModPackages(side manifest.Side) []ModPackageInfo {
	if s.Packages == nil {
		return nil
	}
	return s.Packages(side)
}

// GetModPackageFilePath returns the package directory for modID on
// side, or false if no such package exists.
func (s *System) GetModPackageFilePath(modID string, side manifest.Side) (string, bool) {
	for _, p := range s.GetModPackages(side) {
		if p.ModID == modID {
			return p.Path, true
		}
	}
	return "", false
}

// RegisterEvent wires a new handler into the dispatcher and returns its
// handler id.
func (s *System) RegisterEvent(key event.Key, modID string, priority int32, filter event.ProtocolFilter, routePrefix string) uint64 {
	return s.Dispatcher.Register(key, modID, priority, filter, routePrefix)
}

// UnregisterEvent removes a single handler.
func (s *System) UnregisterEvent(handlerID uint64) bool {
	return s.Dispatcher.Unregister(handlerID)
}

// SendEvent queues a custom event onto the dispatcher's bounded channel
// (spec.md §4.8's "async void").
func (s *System) SendEvent(name string, args []string) error {
	return s.Dispatcher.RequestSendEvent(name, args)
}

// AttachMod attaches modID through the Attach hook and returns once its
// load and lifecycle calls have run.
func (s *System) AttachMod(ctx context.Context, modID string) error {
	if s.Attach == nil {
		return errs.New(errs.CodeNotImplemented, "attach_mod is not wired for this runtime")
	}
	return s.Attach(ctx, modID)
}

// InstallModFromPath extracts the archive at zipPath into this
// runtime's configured mods directory under modID, per spec.md §4.8.
func (s *System) InstallModFromPath(zipPath, modID string) (string, error) {
	if s.InstallDir == nil {
		return "", errs.New(errs.CodeNotImplemented, "install_mod_from_path is not wired for this runtime")
	}
	return InstallModFromPath(zipPath, s.InstallDir(), modID)
}

// ExitProcess terminates the process with code, per spec.md §4.8.
func (s *System) ExitProcess(code int) {
	if s.Exit != nil {
		s.Exit(code)
		return
	}
	os.Exit(code)
}

// InstallModFromPath extracts the ZIP at zipPath into destDir/modID,
// using the standard library's archive/zip (no ecosystem zip library
// appears anywhere in the retrieved pack, see DESIGN.md). It runs
// synchronously on the caller's goroutine; the Lua binding
// install_mod_from_path calls it directly.
func InstallModFromPath(zipPath, destDir, modID string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", errs.Wrap(errs.CodeLoadError, "open mod archive", err)
	}
	defer r.Close()

	installPath := filepath.Join(destDir, modID)
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return "", errs.Wrap(errs.CodeLoadError, "create install directory", err)
	}

	for _, f := range r.File {
		target := filepath.Join(installPath, f.Name)
		if !isWithin(installPath, target) {
			return "", errs.WithMetadata(errs.CodePathDenied, "archive entry escapes install directory",
				map[string]string{"entry": f.Name})
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", errs.Wrap(errs.CodeLoadError, "create archive directory", err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return "", errs.Wrap(errs.CodeLoadError, "extract archive entry", err)
		}
	}
	return installPath, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func isWithin(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}
