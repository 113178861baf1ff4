package module

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Manifest is the typed on-disk declaration applied on top of a builtin
// module at load time. Manifests cannot introduce code, only tune option
// defaults and disable modules.
type Manifest struct {
	// Module names the builtin module this manifest configures.
	Module string `yaml:"module"`
	// Disabled skips registration of the module entirely.
	Disabled bool `yaml:"disabled,omitempty"`
	// Options overrides declared option defaults by name.
	Options map[string]string `yaml:"options,omitempty"`
}

// LoadReport summarizes one LoadAll pass. A single malformed module or
// manifest fails only its own entry; the rest of the scan proceeds.
type LoadReport struct {
	Registered []string
	Failures   map[string]error
}

// Failed reports whether any entry failed to load.
func (r *LoadReport) Failed() bool {
	return len(r.Failures) > 0
}

// LoadAll registers the builtin modules into reg, applying any YAML
// manifests found under manifestDirs (*.yml, *.yaml, non-recursive).
// Returns REGISTRY_EMPTY when no module at all survived loading, which
// callers treat as a fatal startup failure.
func LoadAll(reg *Registry, builtins []Module, manifestDirs []string, logger *slog.Logger) (*LoadReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := &LoadReport{Failures: make(map[string]error)}

	manifests, manifestErrs := scanManifests(manifestDirs)
	for path, err := range manifestErrs {
		logger.Warn("skipping malformed module manifest", "path", path, "error", err)
		report.Failures[path] = err
	}

	for _, m := range builtins {
		id := m.ID()
		manifest, hasManifest := manifests[id]
		if hasManifest && manifest.Disabled {
			logger.Debug("module disabled by manifest", "module", id)
			continue
		}

		if hasManifest {
			if err := applyManifest(m, manifest); err != nil {
				logger.Warn("module failed to load", "module", id, "error", err)
				report.Failures[id] = err
				continue
			}
		}

		if err := reg.Register(m); err != nil {
			logger.Warn("module failed to register", "module", id, "error", err)
			report.Failures[id] = err
			continue
		}
		report.Registered = append(report.Registered, id)
	}

	sort.Strings(report.Registered)

	if reg.Len() == 0 {
		return report, types.NewError(types.REGISTRY_EMPTY,
			"module registry is empty after loading; nothing to run")
	}
	return report, nil
}

// applyManifest overrides the module's option defaults. Overrides stay
// defaults, not explicit values, so `show options` keeps the defaulted
// marking truthful. An override that fails validation fails the whole
// module, keeping half-configured modules out of the registry.
func applyManifest(m Module, manifest *Manifest) error {
	for name, value := range manifest.Options {
		if !m.Options().Has(name) {
			return types.NewError(types.MODULE_LOAD_FAILED,
				fmt.Sprintf("manifest for %s overrides unknown option %s", m.ID(), name))
		}
		if err := m.Options().SetDefault(name, value); err != nil {
			return types.WrapError(types.MODULE_LOAD_FAILED,
				fmt.Sprintf("manifest for %s sets invalid value for option %s", m.ID(), name), err)
		}
	}
	return nil
}

// scanManifests parses every YAML manifest in dirs. Parse failures are
// collected per file instead of aborting the scan.
func scanManifests(dirs []string) (map[string]*Manifest, map[string]error) {
	manifests := make(map[string]*Manifest)
	failures := make(map[string]error)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				failures[dir] = err
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext != ".yml" && ext != ".yaml" {
				continue
			}
			path := filepath.Join(dir, entry.Name())

			data, err := os.ReadFile(path)
			if err != nil {
				failures[path] = err
				continue
			}
			var manifest Manifest
			if err := yaml.Unmarshal(data, &manifest); err != nil {
				failures[path] = types.WrapError(types.MODULE_LOAD_FAILED,
					"manifest is not valid YAML", err)
				continue
			}
			if manifest.Module == "" {
				failures[path] = types.NewError(types.MODULE_LOAD_FAILED,
					"manifest does not name a module")
				continue
			}
			manifests[manifest.Module] = &manifest
		}
	}
	return manifests, failures
}
