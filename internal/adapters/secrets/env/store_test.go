package env

import (
	"context"
	"testing"

	"github.com/bnema/sage/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReadsVariable(t *testing.T) {
	t.Setenv("SAGE_TEST_KEY", "  sk-test \n")

	value, err := NewStore("SAGE_TEST_KEY").Get(context.Background(), "sage/default/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)
}

func TestStoreGetMissingVariable(t *testing.T) {
	t.Parallel()

	store := &Store{variable: DefaultVariable, lookup: func(string) (string, bool) { return "", false }}

	_, err := store.Get(context.Background(), "sage/default/api_key")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreOnlyAnswersAPIKeys(t *testing.T) {
	t.Parallel()

	store := &Store{variable: DefaultVariable, lookup: func(string) (string, bool) { return "sk", true }}

	_, err := store.Get(context.Background(), "sage/default/other")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	store := NewStore("")
	require.ErrorIs(t, store.Put(context.Background(), "sage/default/api_key", "sk"), ErrReadOnly)
	require.ErrorIs(t, store.Delete(context.Background(), "sage/default/api_key"), ErrReadOnly)
}
