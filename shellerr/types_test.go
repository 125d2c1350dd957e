package shellerr

import (
	"errors"
	"testing"
	"time"
)

func TestShellError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ShellError
		want string
	}{
		{
			name: "returns underlying error message when Err is not nil",
			err: &ShellError{
				Err:         errors.New("engine create failed"),
				UserMessage: "Please try again later",
			},
			want: "engine create failed",
		},
		{
			name: "returns UserMessage when Err is nil",
			err: &ShellError{
				Err:         nil,
				UserMessage: "Sync failed",
			},
			want: "Sync failed",
		},
		{
			name: "returns empty string when both Err and UserMessage are empty",
			err:  &ShellError{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ShellError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShellError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &ShellError{Err: underlying}
	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	errNil := &ShellError{}
	if got := errNil.Unwrap(); got != nil {
		t.Errorf("Unwrap() with nil Err = %v, want nil", got)
	}
}

func TestNew(t *testing.T) {
	underlying := errors.New("connection failed")
	err := New(CategorySync, underlying, "Connection lost")

	if err.Err != underlying {
		t.Errorf("New().Err = %v, want %v", err.Err, underlying)
	}
	if err.Category != CategorySync {
		t.Errorf("New().Category = %v, want %v", err.Category, CategorySync)
	}
	if err.UserMessage != "Connection lost" {
		t.Errorf("New().UserMessage = %q, want %q", err.UserMessage, "Connection lost")
	}
	if err.Context == nil || len(err.Context) != 0 {
		t.Error("New().Context should be initialized and empty")
	}
	if err.Timestamp.IsZero() {
		t.Error("New().Timestamp should be set")
	}
	if time.Since(err.Timestamp) > time.Second {
		t.Errorf("New().Timestamp is too old: %v", time.Since(err.Timestamp))
	}
}

func TestNew_WithNilError(t *testing.T) {
	err := New(CategoryEngine, nil, "Invalid syntax")
	if err.Err != nil {
		t.Errorf("New() with nil error should have Err = nil, got %v", err.Err)
	}
	if err.UserMessage != "Invalid syntax" {
		t.Errorf("New().UserMessage = %q, want %q", err.UserMessage, "Invalid syntax")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryEngine, "Probe timed out", "probe failed: timeout after %d seconds", 8)

	if err.Category != CategoryEngine {
		t.Errorf("Newf().Category = %v, want %v", err.Category, CategoryEngine)
	}
	want := "probe failed: timeout after 8 seconds"
	if err.Err == nil || err.Err.Error() != want {
		t.Errorf("Newf().Err.Error() = %v, want %q", err.Err, want)
	}
	if err.Context == nil {
		t.Error("Newf().Context should be initialized")
	}
}

func TestShellError_WithSubcategory(t *testing.T) {
	err := New(CategoryEngine, nil, "Engine failed")
	result := err.WithSubcategory(SubcategoryEngineCrashed)

	if result != err {
		t.Error("WithSubcategory() should return the same instance for chaining")
	}
	if err.Subcategory != SubcategoryEngineCrashed {
		t.Errorf("Subcategory = %q, want %q", err.Subcategory, SubcategoryEngineCrashed)
	}
}

func TestShellError_WithContext(t *testing.T) {
	err := New(CategorySync, nil, "Sync failed")
	result := err.WithContext("peer_id", "abc123")

	if result != err {
		t.Error("WithContext() should return the same instance for chaining")
	}
	if err.Context["peer_id"] != "abc123" {
		t.Errorf("Context[peer_id] = %v, want abc123", err.Context["peer_id"])
	}
}

func TestShellError_WithContextMap(t *testing.T) {
	err := New(CategoryPersistence, nil, "Snapshot failed")
	ctx := map[string]interface{}{"bytes_written": 1024, "path": "/tmp/snapshot"}

	result := err.WithContextMap(ctx)
	if result != err {
		t.Error("WithContextMap() should return the same instance for chaining")
	}
	for k, v := range ctx {
		if err.Context[k] != v {
			t.Errorf("Context[%q] = %v, want %v", k, err.Context[k], v)
		}
	}
}

func TestShellError_MethodChaining(t *testing.T) {
	err := New(CategorySync, errors.New("conn reset"), "Sync failed").
		WithSubcategory(SubcategorySyncConnection).
		WithContext("peer_id", "abc123").
		WithContext("attempt", 2).
		WithContextMap(map[string]interface{}{"workspace": "default", "retries": 3})

	if err.Subcategory != SubcategorySyncConnection {
		t.Errorf("Chained Subcategory = %q, want %q", err.Subcategory, SubcategorySyncConnection)
	}

	expected := map[string]interface{}{
		"peer_id":   "abc123",
		"attempt":   2,
		"workspace": "default",
		"retries":   3,
	}
	if len(err.Context) != len(expected) {
		t.Errorf("Chained Context has %d items, want %d", len(err.Context), len(expected))
	}
	for k, v := range expected {
		if err.Context[k] != v {
			t.Errorf("Chained Context[%q] = %v, want %v", k, err.Context[k], v)
		}
	}
}

func TestShellError_IsCategory(t *testing.T) {
	err := New(CategoryEngine, nil, "Engine error")
	if !err.IsCategory(CategoryEngine) {
		t.Error("IsCategory(CategoryEngine) should return true")
	}
	if err.IsCategory(CategorySync) {
		t.Error("IsCategory(CategorySync) should return false")
	}
}

func TestShellError_IsSubcategory(t *testing.T) {
	err := New(CategoryEngine, nil, "Engine error").WithSubcategory(SubcategoryEngineCrashed)
	if !err.IsSubcategory(SubcategoryEngineCrashed) {
		t.Error("IsSubcategory(SubcategoryEngineCrashed) should return true")
	}
	if err.IsSubcategory(SubcategoryEngineProbeTimeout) {
		t.Error("IsSubcategory(SubcategoryEngineProbeTimeout) should return false")
	}

	errNoSub := New(CategorySync, nil, "Sync error")
	if errNoSub.IsSubcategory("anything") {
		t.Error("IsSubcategory() should return false when no subcategory is set")
	}
}
