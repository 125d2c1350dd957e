package controlpanel

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/reducer"
	"github.com/teranos/graphshell/registries"
	"github.com/teranos/graphshell/shellerr"
)

const modManifestFile = "mod.toml"

// modManifestDoc is the on-disk shape of a mod's mod.toml.
type modManifestDoc struct {
	ID       string   `toml:"id"`
	Version  string   `toml:"version"`
	Provides []string `toml:"provides"`
	Requires []struct {
		Capability string `toml:"capability"`
		Constraint string `toml:"constraint"`
	} `toml:"requires"`
}

// discoverMods reads mod.toml from every immediate subdirectory of each
// configured mod path whose id is in the enabled whitelist (an empty
// whitelist enables every discovered mod).
func discoverMods(cfg am.ModConfig) []registries.ModManifest {
	enabled := make(map[string]bool, len(cfg.Enabled))
	for _, id := range cfg.Enabled {
		enabled[id] = true
	}

	var manifests []registries.ModManifest
	for _, root := range cfg.Paths {
		root = expandHome(root)
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(root, e.Name(), modManifestFile)
			b, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			var doc modManifestDoc
			if err := toml.Unmarshal(b, &doc); err != nil {
				continue
			}
			if len(enabled) > 0 && !enabled[doc.ID] {
				continue
			}
			m := registries.ModManifest{ID: doc.ID, Version: doc.Version, Provides: doc.Provides}
			for _, req := range doc.Requires {
				m.Requires = append(m.Requires, registries.ModRequirement{
					Capability: req.Capability, Constraint: req.Constraint,
				})
			}
			manifests = append(manifests, m)
		}
	}
	return manifests
}

// modFailureSubcategory classifies a TopoSortMods error by the phrasing it
// is known to produce, so the UI-facing ShellError carries a subcategory
// without registries needing to return a typed error.
func modFailureSubcategory(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "cycle"):
		return shellerr.SubcategoryModCycle
	case strings.Contains(msg, "provided by nothing installed"):
		return shellerr.SubcategoryModMissingRequire
	case strings.Contains(msg, "requires") && strings.Contains(msg, "found"):
		return shellerr.SubcategoryModVersionConflict
	default:
		return ""
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// loadOneMod resolves the dependency order of manifests and emits
// ModActivated for each of them in that order, or a single ModLoadFailed
// if resolution fails. It is used both at startup and on hot-reload.
func loadOneMod(panel *Panel, manifests []registries.ModManifest, log *zap.SugaredLogger) {
	ordered, err := registries.TopoSortMods(manifests)
	if err != nil {
		shellErr := shellerr.New(shellerr.CategoryMod, err, "").
			WithSubcategory(modFailureSubcategory(err))
		panel.Enqueue(reducer.SourceModLoader, []reducer.Intent{{
			Kind:   reducer.KindModLoadFailed,
			Source: reducer.SourceModLoader,
			Str1:   "mod:bootstrap",
			Str2:   shellErr.ToUIMessage(),
		}})
		if log != nil {
			log.Warnw("mod dependency resolution failed", shellErr.ToLogFields()...)
		}
		return
	}

	for _, m := range ordered {
		if err := panel.Registries.Mod.Register(m.ID, m); err != nil {
			panel.Registries.Mod.Replace(m.ID, m)
		}
		panel.Enqueue(reducer.SourceModLoader, []reducer.Intent{{
			Kind:   reducer.KindModActivated,
			Source: reducer.SourceModLoader,
			Str1:   m.ID,
			Str2:   m.Version,
		}})
	}
}

// SpawnModLoader registers the mod-discovery worker. It resolves
// dependency order at startup, then watches each mod path with fsnotify
// so that a file create/write re-runs discovery over every mod path and
// emits ModActivated (or ModLoadFailed) for the whole resolved set again;
// the changed mod is not singled out.
func (p *Panel) SpawnModLoader(cfg am.ModConfig, log *zap.SugaredLogger) {
	p.Spawn(func(ctx context.Context) {
		loadOneMod(p, discoverMods(cfg), log)

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			if log != nil {
				log.Warnw("mod loader: fsnotify unavailable, hot-reload disabled", "error", err.Error())
			}
			<-ctx.Done()
			return
		}
		defer watcher.Close()

		for _, root := range cfg.Paths {
			watcher.Add(expandHome(root))
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				loadOneMod(p, discoverMods(cfg), log)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if log != nil {
					log.Warnw("mod loader watch error", "error", err.Error())
				}
			}
		}
	})
}
