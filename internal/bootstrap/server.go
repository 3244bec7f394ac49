// Package bootstrap drives the server and client lifecycle sequences
// from spec.md §4.11: per-game dependency validation, the 3-pass
// server attach/bootstrap sequence, and the client's download-driven
// attach flow.
package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stamforge/modhost/internal/capability"
	"github.com/stamforge/modhost/internal/config"
	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/game"
	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/registry"
	"github.com/stamforge/modhost/internal/runtime"
	luaruntime "github.com/stamforge/modhost/internal/runtime/lua"
)

// ModSource answers where a mod's directory lives on disk, given the
// server's configured mods_path.
type ModSource struct {
	ModsPath string
}

func (s ModSource) Dir(modID string) string {
	return filepath.Join(s.ModsPath, modID)
}

// ServerGame is the fully bootstrapped result for one enabled game.
type ServerGame struct {
	ID      string
	Runtime *game.Runtime
}

// BootstrapServer builds one game.Runtime per enabled game in cfg,
// running each game's bootstrap concurrently (spec.md §4.11 expansion:
// cross-game bootstrap isn't ordered by spec.md, only the 3 passes
// within one game are).
func BootstrapServer(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, binders ...luaruntime.Binder) ([]ServerGame, error) {
	src := ModSource{ModsPath: cfg.ModsPath}

	var (
		results []ServerGame
		mu      sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	for gameID, gc := range cfg.Games {
		if !gc.Enabled {
			continue
		}
		gameID, gc := gameID, gc
		g.Go(func() error {
			rt, err := bootstrapOneGame(gctx, gameID, gc, src, log, binders...)
			if err != nil {
				return errs.WrapWithMetadata(errs.CodeLoadError, "bootstrap game failed",
					map[string]string{"game_id": gameID}, err)
			}
			mu.Lock()
			results = append(results, ServerGame{ID: gameID, Runtime: rt})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func bootstrapOneGame(ctx context.Context, gameID string, gc config.GameConfig, src ModSource, log *slog.Logger, binders ...luaruntime.Binder) (*game.Runtime, error) {
	gameLog := log.With("game_id", gameID)
	mgr := runtime.NewManager()
	mgr.Register(runtime.TypeLua, luaruntime.NewAdapter(gameID, gameLog, binders...))

	rt := game.NewRuntime(gameID, mgr, gameLog)

	hosts := manifest.HostVersions{Client: gc.Version, Server: gc.Version, Game: gc.Version}
	enabledMods := enabledModIDs(gc)

	rt.System.Packages = func(side manifest.Side) []capability.ModPackageInfo {
		return scanModPackages(src, enabledMods, side)
	}
	rt.System.InstallDir = func() string { return src.ModsPath }
	rt.System.Attach = func(attachCtx context.Context, modID string) error {
		return attachSingleMod(attachCtx, rt, mgr, src, modID)
	}

	// Dependency validation runs twice: once for the client-visible set,
	// once for the server-visible set, each skipping @client checks
	// (spec.md §4.11).
	if err := validateDependencies(src, enabledMods, manifest.SideClient, hosts); err != nil {
		return nil, err
	}
	if err := validateDependencies(src, enabledMods, manifest.SideServer, hosts); err != nil {
		return nil, err
	}

	// Pass 1: register alias + ModInfo.
	manifests := make(map[string]*manifest.Manifest, len(enabledMods))
	for _, modID := range enabledMods {
		m, _, err := manifest.Resolve(src.Dir(modID), manifest.SideServer)
		if err != nil {
			return nil, errs.WrapWithMetadata(errs.CodeManifestError, "resolve server manifest",
				map[string]string{"mod_id": modID}, err)
		}
		manifests[modID] = m

		registry.Aliases.Register(modID, src.Dir(modID))
		rt.RegisterModInfo(manifest.Info{
			ID:       modID,
			Version:  m.Version,
			Name:     m.Name,
			ModType:  m.ModType,
			Priority: m.Priority,
			Loaded:   false, // pass 2 flips this via MarkLoaded; asset-only mods skip pass 2 and stay false
			Exists:   true,
		})
	}
	// Passes 2 and 3 and the server mod list follow ascending manifest
	// priority; equal priorities fall back to mod id order.
	sort.SliceStable(enabledMods, func(i, j int) bool {
		pi, pj := manifests[enabledMods[i]].Priority, manifests[enabledMods[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return enabledMods[i] < enabledMods[j]
	})
	rt.SetServerMods(enabledMods)

	// Pass 2: load_mod -> onAttach, polling the fatal flag after each.
	for _, modID := range enabledMods {
		m := manifests[modID]
		if m.EntryPoint == "" {
			continue // asset-only: short-circuits to Terminal, spec.md §4.11 state diagram
		}
		entryPath := filepath.Join(src.Dir(modID), m.EntryPoint)
		if err := mgr.LoadMod(ctx, modID, entryPath); err != nil {
			return nil, errs.WrapWithMetadata(errs.CodeLoadError, "load mod",
				map[string]string{"mod_id": modID}, err)
		}
		rt.MarkLoaded(modID)

		a, err := mgr.For(entryPath)
		if err != nil {
			return nil, err
		}
		if err := a.CallModFunction(ctx, modID, "onAttach"); err != nil {
			return nil, err
		}
		if rt.PollFatal() {
			return nil, errs.Newf(errs.CodeFatalScriptError, "mod %q raised a fatal error during onAttach", modID)
		}
	}

	// Pass 3: onBootstrap for every bootstrap-type mod.
	for _, modID := range enabledMods {
		m := manifests[modID]
		if m.ModType != manifest.ModTypeBootstrap || m.EntryPoint == "" {
			continue
		}
		entryPath := filepath.Join(src.Dir(modID), m.EntryPoint)
		a, err := mgr.For(entryPath)
		if err != nil {
			return nil, err
		}
		if err := a.CallModFunction(ctx, modID, "onBootstrap"); err != nil {
			return nil, err
		}
		if rt.PollFatal() {
			return nil, errs.Newf(errs.CodeFatalScriptError, "mod %q raised a fatal error during onBootstrap", modID)
		}
		if err := rt.MarkBootstrapped(modID); err != nil {
			return nil, err
		}
	}

	return rt, nil
}

// scanModPackages reports the on-disk package for every enabled mod that
// still resolves on side; a mod whose side-specific manifest is missing
// or invalid (e.g. a server-only mod queried for the client side) is
// skipped rather than failing the whole listing.
func scanModPackages(src ModSource, modIDs []string, side manifest.Side) []capability.ModPackageInfo {
	out := make([]capability.ModPackageInfo, 0, len(modIDs))
	for _, modID := range modIDs {
		dir := src.Dir(modID)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if _, _, err := manifest.Resolve(dir, side); err != nil {
			continue
		}
		out = append(out, capability.ModPackageInfo{ModID: modID, Side: side, Path: dir})
	}
	return out
}

// attachSingleMod runs the onAttach/onBootstrap sequence for one mod
// requested at runtime via system.attach_mod, after the initial 3-pass
// bootstrap has already completed for every other mod. Unlike
// bootstrapOneGame's passes, which must finish every mod's onAttach
// before any mod's onBootstrap, a single late-attached mod runs both
// steps back to back since it has no bearing on the other mods' order.
func attachSingleMod(ctx context.Context, rt *game.Runtime, mgr *runtime.Manager, src ModSource, modID string) error {
	m, _, err := manifest.Resolve(src.Dir(modID), manifest.SideServer)
	if err != nil {
		return errs.WrapWithMetadata(errs.CodeManifestError, "resolve server manifest",
			map[string]string{"mod_id": modID}, err)
	}

	registry.Aliases.Register(modID, src.Dir(modID))
	rt.RegisterModInfo(manifest.Info{
		ID:       modID,
		Version:  m.Version,
		Name:     m.Name,
		ModType:  m.ModType,
		Priority: m.Priority,
		Exists:   true,
	})

	if m.EntryPoint == "" {
		return nil
	}
	entryPath := filepath.Join(src.Dir(modID), m.EntryPoint)
	if err := mgr.LoadMod(ctx, modID, entryPath); err != nil {
		return errs.WrapWithMetadata(errs.CodeLoadError, "load mod", map[string]string{"mod_id": modID}, err)
	}
	rt.MarkLoaded(modID)

	a, err := mgr.For(entryPath)
	if err != nil {
		return err
	}
	if err := a.CallModFunction(ctx, modID, "onAttach"); err != nil {
		return err
	}
	if rt.PollFatal() {
		return errs.Newf(errs.CodeFatalScriptError, "mod %q raised a fatal error during onAttach", modID)
	}

	if m.ModType != manifest.ModTypeBootstrap {
		return nil
	}
	if err := a.CallModFunction(ctx, modID, "onBootstrap"); err != nil {
		return err
	}
	if rt.PollFatal() {
		return errs.Newf(errs.CodeFatalScriptError, "mod %q raised a fatal error during onBootstrap", modID)
	}
	return rt.MarkBootstrapped(modID)
}

func enabledModIDs(gc config.GameConfig) []string {
	out := make([]string, 0, len(gc.Mods))
	for modID, mc := range gc.Mods {
		if mc.Enabled {
			out = append(out, modID)
		}
	}
	return out
}

func validateDependencies(src ModSource, modIDs []string, side manifest.Side, hosts manifest.HostVersions) error {
	loaded := make(map[string]*manifest.Manifest, len(modIDs))
	for _, modID := range modIDs {
		m, _, err := manifest.Resolve(src.Dir(modID), side)
		if err != nil {
			return errs.WrapWithMetadata(errs.CodeManifestError, "resolve manifest for dependency validation",
				map[string]string{"mod_id": modID, "side": string(side)}, err)
		}
		loaded[modID] = m
	}
	peerLookup := func(modID string) (string, bool) {
		m, ok := loaded[modID]
		if !ok {
			return "", false
		}
		return m.Version, true
	}
	for modID, m := range loaded {
		if err := manifest.CheckRequires(modID, m.Requires, hosts, true, peerLookup); err != nil {
			return err
		}
	}
	return nil
}
