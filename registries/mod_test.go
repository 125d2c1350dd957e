package registries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSortMods_ResolvesDependencyOrder(t *testing.T) {
	manifests := []ModManifest{
		{ID: "mod:annotations", Version: "1.0.0", Provides: []string{"annotations"}, Requires: []ModRequirement{
			{Capability: "storage"},
		}},
		{ID: "mod:storage", Version: "2.1.0", Provides: []string{"storage"}},
	}

	ordered, err := TopoSortMods(manifests)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "mod:storage", ordered[0].ID)
	assert.Equal(t, "mod:annotations", ordered[1].ID)
}

func TestTopoSortMods_MissingCapability(t *testing.T) {
	manifests := []ModManifest{
		{ID: "mod:annotations", Requires: []ModRequirement{{Capability: "storage"}}},
	}

	_, err := TopoSortMods(manifests)
	assert.Error(t, err)
}

func TestTopoSortMods_VersionConstraintViolation(t *testing.T) {
	manifests := []ModManifest{
		{ID: "mod:annotations", Requires: []ModRequirement{{Capability: "storage", Constraint: ">= 2.0.0"}}},
		{ID: "mod:storage", Version: "1.0.0", Provides: []string{"storage"}},
	}

	_, err := TopoSortMods(manifests)
	assert.Error(t, err)
}

func TestTopoSortMods_Cycle(t *testing.T) {
	manifests := []ModManifest{
		{ID: "mod:a", Provides: []string{"a"}, Requires: []ModRequirement{{Capability: "b"}}},
		{ID: "mod:b", Provides: []string{"b"}, Requires: []ModRequirement{{Capability: "a"}}},
	}

	_, err := TopoSortMods(manifests)
	assert.Error(t, err)
}
