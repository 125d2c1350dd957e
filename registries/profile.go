package registries

// Profile is the shared shape for lens, physics, layout, and theme
// registries: a named configuration blob keyed by its id. A Profile
// carries no fallback id of its own.
type Profile struct {
	ID     string
	Params map[string]interface{}
}

// LensRegistry, PhysicsRegistry, LayoutRegistry, and ThemeRegistry are all
// the same shape (id -> Profile, with fallback); spec.md §4.8 groups them
// together as "lens/physics/layout/theme (id -> profile with fallback id)".
type LensRegistry = Registry[Profile]
type PhysicsRegistry = Registry[Profile]
type LayoutRegistry = Registry[Profile]
type ThemeRegistry = Registry[Profile]

func NewLensRegistry(diag Diagnostics) *LensRegistry       { return New[Profile]("lens", diag) }
func NewPhysicsRegistry(diag Diagnostics) *PhysicsRegistry  { return New[Profile]("physics", diag) }
func NewLayoutRegistry(diag Diagnostics) *LayoutRegistry    { return New[Profile]("layout", diag) }
func NewThemeRegistry(diag Diagnostics) *ThemeRegistry      { return New[Profile]("theme", diag) }
