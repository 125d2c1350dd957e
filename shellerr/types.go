package shellerr

import (
	"time"

	"github.com/teranos/graphshell/errors"
)

// ShellError is an error with structured context for UI display and logging.
type ShellError struct {
	Err         error
	Category    Category
	Subcategory string
	UserMessage string
	Context     map[string]interface{}
	Timestamp   time.Time
}

func (e *ShellError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap lets errors.Is/As see through to the underlying error.
func (e *ShellError) Unwrap() error {
	return e.Err
}

// New creates a ShellError wrapping err.
func New(category Category, err error, userMsg string) *ShellError {
	return &ShellError{
		Err:         err,
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
		Timestamp:   time.Now(),
	}
}

// Newf creates a ShellError with a formatted underlying message.
func Newf(category Category, userMsg, format string, args ...interface{}) *ShellError {
	return &ShellError{
		Err:         errors.Newf(format, args...),
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
		Timestamp:   time.Now(),
	}
}

func (e *ShellError) WithSubcategory(sub string) *ShellError {
	e.Subcategory = sub
	return e
}

func (e *ShellError) WithContext(key string, value interface{}) *ShellError {
	e.Context[key] = value
	return e
}

func (e *ShellError) WithContextMap(ctx map[string]interface{}) *ShellError {
	for k, v := range ctx {
		e.Context[k] = v
	}
	return e
}
