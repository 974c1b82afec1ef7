package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConfigurationStoreContract runs a suite of tests to verify that a
// ConfigurationStore implementation adheres to the interface contract.
func RunConfigurationStoreContract(t *testing.T, store ConfigurationStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	target := domain.New(
		domain.CoreFragment{
			PlatformSuffix:              "myconfig",
			AffectedByDynamicTransition: []string{"platforms", "is_exec"},
			Distinguisher:               domain.DistinguisherDiffToAffected,
		},
		domain.PlatformFragment{Platforms: domain.Labels("//platform:target", "//platform:other")},
	)

	t.Run("Save and Load", func(t *testing.T) {
		key := prefix + "-save"
		require.NoError(t, store.Save(ctx, key, target), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.True(t, target.Equal(loaded), "loaded configuration should equal the saved one")
		assert.Equal(t, target.Checksum(), loaded.Checksum())

		p, ok := loaded.Platform()
		require.True(t, ok)
		assert.Equal(t, domain.Labels("//platform:target", "//platform:other"), p.Platforms, "platform order must survive")
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "-overwrite"
		require.NoError(t, store.Save(ctx, key, target))

		replacement := target.With(domain.CoreFragment{IsExec: true})
		require.NoError(t, store.Save(ctx, key, replacement))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.True(t, replacement.Equal(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrConfigurationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "-delete"
		require.NoError(t, store.Save(ctx, key, target))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrConfigurationNotFound, "Load after Delete should return ErrConfigurationNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "-list-1"
		id2 := prefix + "-list-2"
		require.NoError(t, store.Save(ctx, id1, target))
		require.NoError(t, store.Save(ctx, id2, target))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
