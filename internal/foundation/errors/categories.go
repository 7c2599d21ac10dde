package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryFileSystem represents errors reading the content root or
	// writing the output root.
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryMarkup represents document parsing errors.
	CategoryMarkup ErrorCategory = "markup"

	// CategoryResolve represents site graph and link resolution errors.
	CategoryResolve ErrorCategory = "resolve"

	// CategoryRender represents template and artifact production errors.
	CategoryRender ErrorCategory = "render"

	// CategoryBuild represents build cycle orchestration errors.
	CategoryBuild ErrorCategory = "build"

	// CategoryWatch represents filesystem watch errors.
	CategoryWatch ErrorCategory = "watch"

	// CategoryStore represents build cache persistence errors.
	CategoryStore ErrorCategory = "store"

	// CategoryInternal is the fallback for unexpected conditions.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the current build cycle
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"     // Permanent failure, don't retry
	RetryNextChange RetryStrategy = "on_change" // Retry on the next filesystem change
	RetryUserAction RetryStrategy = "user"      // Requires user intervention
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with the receiver's values taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if other == nil {
		return c
	}
	merged := make(ErrorContext, len(c)+len(other))
	maps.Copy(merged, other)
	maps.Copy(merged, c)
	return merged
}
