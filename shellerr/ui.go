package shellerr

import "fmt"

var defaultMessages = map[Category]string{
	CategoryEngine:      "This page failed to load — try reloading it",
	CategorySync:        "Sync with a peer failed — it will retry automatically",
	CategoryPersistence: "Failed to save your workspace — your changes may not persist",
	CategoryWorkbench:   "That pane action couldn't be completed",
	CategoryMod:         "A mod failed to load",
	CategoryInternal:    "An internal error occurred — please try again",
}

// ToUIMessage returns UserMessage if set, else a generic per-category message.
func (e *ShellError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.defaultMessageForCategory()
}

func (e *ShellError) defaultMessageForCategory() string {
	if msg, ok := defaultMessages[e.Category]; ok {
		return msg
	}
	return "An error occurred"
}

// ToMeta formats the error for inclusion in a GraphView-adjacent metadata
// payload sent to the UI.
func (e *ShellError) ToMeta() map[string]string {
	meta := map[string]string{
		"error":       e.Error(),
		"category":    string(e.Category),
		"description": e.ToUIMessage(),
		"timestamp":   e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	if e.Subcategory != "" {
		meta["subcategory"] = e.Subcategory
	}
	if len(e.Context) > 0 {
		meta["context"] = fmt.Sprintf("%v", e.Context)
	}
	return meta
}

// ToLogFields converts the error to structured zap-style log fields.
func (e *ShellError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
		"user_message", e.UserMessage,
	}
	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

func (e *ShellError) IsCategory(cat Category) bool {
	return e.Category == cat
}

func (e *ShellError) IsSubcategory(sub string) bool {
	return e.Subcategory == sub
}
