package registries

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/graphshell/errors"
)

// ModManifest describes one installed mod's declared capabilities and
// dependencies, parsed from its manifest file.
type ModManifest struct {
	ID       string
	Version  string
	Provides []string
	Requires []ModRequirement
}

// ModRequirement names a capability another mod must provide, with an
// optional semver constraint on that provider's version.
type ModRequirement struct {
	Capability string
	Constraint string // semver constraint, e.g. ">= 1.2.0"; empty means any version
}

// ModRegistry tracks installed mod manifests by id.
type ModRegistry = Registry[ModManifest]

// NewModRegistry builds an empty mod registry.
func NewModRegistry(diag Diagnostics) *ModRegistry {
	return New[ModManifest]("mod", diag)
}

// TopoSortMods resolves a load order over manifests satisfying every
// Requires edge, using Kahn's algorithm, generalized from the teacher's
// plugin.Registry flat name-conflict check into a full dependency sort.
// Returns an error naming the first unresolved requirement or detected
// cycle.
func TopoSortMods(manifests []ModManifest) ([]ModManifest, error) {
	byCapability := make(map[string]ModManifest)
	for _, m := range manifests {
		for _, cap := range m.Provides {
			byCapability[cap] = m
		}
	}

	indegree := make(map[string]int, len(manifests))
	dependents := make(map[string][]string) // capability-provider id -> dependent mod ids
	byID := make(map[string]ModManifest, len(manifests))
	for _, m := range manifests {
		byID[m.ID] = m
		indegree[m.ID] = 0
	}

	for _, m := range manifests {
		for _, req := range m.Requires {
			provider, ok := byCapability[req.Capability]
			if !ok {
				return nil, errors.Newf("mod %s requires capability %q, provided by nothing installed", m.ID, req.Capability)
			}
			if req.Constraint != "" {
				c, err := semver.NewConstraint(req.Constraint)
				if err != nil {
					return nil, errors.Wrapf(err, "mod %s has invalid constraint %q", m.ID, req.Constraint)
				}
				v, err := semver.NewVersion(provider.Version)
				if err != nil {
					return nil, errors.Wrapf(err, "mod %s has unparseable version %q", provider.ID, provider.Version)
				}
				if !c.Check(v) {
					return nil, errors.Newf("mod %s requires %s %s, found %s", m.ID, req.Capability, req.Constraint, provider.Version)
				}
			}
			if provider.ID == m.ID {
				continue
			}
			indegree[m.ID]++
			dependents[provider.ID] = append(dependents[provider.ID], m.ID)
		}
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var ordered []ModManifest
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])

		var ready []string
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(ordered) != len(manifests) {
		return nil, errors.New("mod dependency graph contains a cycle")
	}
	return ordered, nil
}
