package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	err := NewError(CategoryRender, "template failed").
		WithContext("doc", "guide/index.md").
		Build()

	require.NotNil(t, err)
	assert.Equal(t, CategoryRender, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	doc, ok := err.Context().GetString("doc")
	require.True(t, ok)
	assert.Equal(t, "guide/index.md", doc)
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := stderrors.New("no such file")
	err := WrapError(cause, CategoryFileSystem, "read document").Build()

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "read document")
	assert.Contains(t, err.Error(), "no such file")
}

func TestConfigErrorIsFatal(t *testing.T) {
	err := ConfigError("conflicting navigation parents").Build()
	assert.True(t, err.IsFatal())
	assert.Equal(t, RetryUserAction, err.RetryStrategy())
	assert.True(t, IsFatal(err))
}

func TestMarkupErrorIsWarning(t *testing.T) {
	err := MarkupError("unterminated fence").Build()
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.False(t, err.IsFatal())
}

func TestGetCategoryFallback(t *testing.T) {
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, CategoryResolve, GetCategory(ResolveError("broken link").Build()))
}

func TestWithContextAddsValue(t *testing.T) {
	base := BuildError("cycle failed").Build()
	derived := base.WithContext("cycle_id", "abc")

	id, ok := derived.Context().GetString("cycle_id")
	require.True(t, ok)
	assert.Equal(t, "abc", id)
}
