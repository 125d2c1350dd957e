package shellerr

import "testing"

func TestToUIMessage_PrefersUserMessage(t *testing.T) {
	err := New(CategoryEngine, nil, "custom message")
	if got := err.ToUIMessage(); got != "custom message" {
		t.Errorf("ToUIMessage() = %q, want %q", got, "custom message")
	}
}

func TestToUIMessage_FallsBackToCategoryDefault(t *testing.T) {
	err := &ShellError{Category: CategorySync}
	if got := err.ToUIMessage(); got != defaultMessages[CategorySync] {
		t.Errorf("ToUIMessage() = %q, want category default", got)
	}
}

func TestToMeta_IncludesSubcategoryAndContextWhenSet(t *testing.T) {
	err := New(CategoryPersistence, nil, "snapshot failed").
		WithSubcategory(SubcategoryPersistenceSnapshot).
		WithContext("path", "/tmp/x")

	meta := err.ToMeta()
	if meta["category"] != string(CategoryPersistence) {
		t.Errorf("meta[category] = %q", meta["category"])
	}
	if meta["subcategory"] != SubcategoryPersistenceSnapshot {
		t.Errorf("meta[subcategory] = %q", meta["subcategory"])
	}
	if _, ok := meta["context"]; !ok {
		t.Error("meta[context] should be present once context is set")
	}
}

func TestToLogFields_OmitsSubcategoryWhenUnset(t *testing.T) {
	err := New(CategoryEngine, nil, "failed")
	fields := err.ToLogFields()
	for i := 0; i < len(fields); i += 2 {
		if fields[i] == "error_subcategory" {
			t.Error("error_subcategory should not appear when Subcategory is unset")
		}
	}
}
