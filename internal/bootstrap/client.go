package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/game"
	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/registry"
	"github.com/stamforge/modhost/internal/runtime"
	luaruntime "github.com/stamforge/modhost/internal/runtime/lua"
	"github.com/stamforge/modhost/internal/wire"
)

// AttachClientMods is driven by the server's LoginSuccess mod list (spec.md
// §4.11): for every mod absent locally, download its archive, install
// it, then attach it through the same load+onAttach(+onBootstrap)
// sequence the server uses for a single mod.
func AttachClientMods(ctx context.Context, gameID, installDir string, mods []wire.ModInfo, net *capability.Network, log *slog.Logger, binders ...luaruntime.Binder) (*game.Runtime, error) {
	mgr := runtime.NewManager()
	gameLog := log.With("game_id", gameID)
	mgr.Register(runtime.TypeLua, luaruntime.NewAdapter(gameID, gameLog, binders...))
	rt := game.NewRuntime(gameID, mgr, gameLog)

	for _, mod := range mods {
		if err := attachOneClientMod(ctx, rt, mgr, installDir, mod, net, gameLog); err != nil {
			return nil, errs.WrapWithMetadata(errs.CodeLoadError, "attach client mod",
				map[string]string{"mod_id": mod.ModID}, err)
		}
	}
	return rt, nil
}

func attachOneClientMod(ctx context.Context, rt *game.Runtime, mgr *runtime.Manager, installDir string, mod wire.ModInfo, net *capability.Network, log *slog.Logger) error {
	modDir := filepath.Join(installDir, mod.ModID)
	if _, err := os.Stat(modDir); err != nil {
		if err := downloadAndInstall(ctx, modDir, mod, net, log); err != nil {
			return err
		}
	}

	registry.Aliases.Register(mod.ModID, modDir)

	m, _, err := manifest.Resolve(modDir, manifest.SideClient)
	if err != nil {
		return err
	}

	rt.RegisterModInfo(manifest.Info{
		ID:       mod.ModID,
		Version:  m.Version,
		Name:     m.Name,
		ModType:  m.ModType,
		Priority: m.Priority,
		Loaded:   false, // MarkLoaded flips this below for mods with an entry point
		Exists:   true,
	})

	if m.EntryPoint == "" {
		return nil
	}

	entryPath := filepath.Join(modDir, m.EntryPoint)
	if err := mgr.LoadMod(ctx, mod.ModID, entryPath); err != nil {
		return err
	}
	rt.MarkLoaded(mod.ModID)

	a, err := mgr.For(entryPath)
	if err != nil {
		return err
	}
	if err := a.CallModFunction(ctx, mod.ModID, "onAttach"); err != nil {
		return err
	}
	if rt.PollFatal() {
		return errs.Newf(errs.CodeFatalScriptError, "mod %q raised a fatal error during onAttach", mod.ModID)
	}

	if m.ModType == manifest.ModTypeBootstrap {
		if err := a.CallModFunction(ctx, mod.ModID, "onBootstrap"); err != nil {
			return err
		}
		if rt.PollFatal() {
			return errs.Newf(errs.CodeFatalScriptError, "mod %q raised a fatal error during onBootstrap", mod.ModID)
		}
		return rt.MarkBootstrapped(mod.ModID)
	}
	return nil
}

func downloadAndInstall(ctx context.Context, modDir string, mod wire.ModInfo, net *capability.Network, log *slog.Logger) error {
	result, err := net.Download(ctx, mod.DownloadURL)
	if err != nil {
		return err
	}
	if result.Status != 200 {
		return errs.Newf(errs.CodeLoadError, "download of mod %q failed with status %d", mod.ModID, result.Status)
	}

	zipPath := result.TempFilePath
	if zipPath == "" {
		return errs.New(errs.CodeLoadError, "download result had no archive to install")
	}

	if info, statErr := os.Stat(zipPath); statErr == nil {
		log.Info("downloaded mod archive", "mod_id", mod.ModID, "size", humanize.Bytes(uint64(info.Size())))
	}

	installDir := filepath.Dir(modDir)
	_, err = capability.InstallModFromPath(zipPath, installDir, mod.ModID)
	return err
}
