package registries

// ViewerEntry identifies the viewer implementation responsible for
// rendering a node's content, looked up by mime type or file extension.
type ViewerEntry struct {
	ViewerID string
	Label    string
}

// ViewerRegistry resolves mime type or extension -> viewer, falling back to
// a generic inspector viewer when nothing matches.
type ViewerRegistry = Registry[ViewerEntry]

const fallbackViewerID = "inspector"

// NewViewerRegistry builds a viewer registry with the fallback inspector
// viewer pre-registered.
func NewViewerRegistry(diag Diagnostics) *ViewerRegistry {
	r := New[ViewerEntry]("viewer", diag)
	r.Register(fallbackViewerID, ViewerEntry{ViewerID: fallbackViewerID, Label: "Inspector"})
	r.SetFallback(fallbackViewerID)
	return r
}
