package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

func TestCanonicalRepository_CreateEntityIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCanonicalRepository(db)
	ctx := context.Background()

	first, created, err := repo.CreateEntityIfAbsent(ctx, entities.KindItem, "Latte", "latte")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)
	assert.Equal(t, entities.KindItem, first.Kind)

	second, created, err := repo.CreateEntityIfAbsent(ctx, entities.KindItem, "LATTE", "latte")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Latte", second.CanonicalName, "existing row must win")

	count, err := repo.CountEntities(ctx, entities.KindItem)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Same normalized name in the other vocabulary is a separate entity.
	_, created, err = repo.CreateEntityIfAbsent(ctx, entities.KindCategory, "Latte", "latte")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCanonicalRepository_CreateEntityIfAbsent_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCanonicalRepository(db)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			entity, _, err := repo.CreateEntityIfAbsent(ctx, entities.KindCategory, "Hot Drinks", "hot drinks")
			if assert.NoError(t, err) {
				ids[i] = entity.ID
			}
		})
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	count, err := repo.CountEntities(ctx, entities.KindCategory)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCanonicalRepository_CreateEntityIfAbsent_InvalidInput(t *testing.T) {
	repo := NewCanonicalRepository(setupTestDB(t))
	ctx := context.Background()

	_, _, err := repo.CreateEntityIfAbsent(ctx, entities.KindItem, "", "x")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = repo.CreateEntityIfAbsent(ctx, entities.EntityKind("drink"), "Tea", "tea")
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestCanonicalRepository_Mappings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCanonicalRepository(db)
	ctx := context.Background()

	entity, _, err := repo.CreateEntityIfAbsent(ctx, entities.KindCategory, "Hot Drinks", "hot drinks")
	require.NoError(t, err)

	_, err = repo.FindMapping(ctx, entities.KindCategory, "hot drinks")
	require.ErrorIs(t, err, ErrMappingNotFound)

	created, err := repo.CreateMappingIfAbsent(ctx, entities.KindCategory, &NameMapping{
		RawName:           "HOT DRINKS ☕",
		NormalizedRawName: "hot drinks",
		EntityID:          entity.ID,
		Method:            entities.MethodCreated,
		Confidence:        1,
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateMappingIfAbsent(ctx, entities.KindCategory, &NameMapping{
		RawName:           "Hot drinks",
		NormalizedRawName: "hot drinks",
		EntityID:          entity.ID,
		Method:            entities.MethodExact,
		Confidence:        1,
	})
	require.NoError(t, err)
	assert.False(t, created)

	mapping, err := repo.FindMapping(ctx, entities.KindCategory, "hot drinks")
	require.NoError(t, err)
	assert.Equal(t, "HOT DRINKS ☕", mapping.RawName)
	assert.Equal(t, entities.MethodCreated, mapping.Method)
	assert.Equal(t, entity.ID, mapping.EntityID)

	// Item mappings live in their own table.
	_, err = repo.FindMapping(ctx, entities.KindItem, "hot drinks")
	require.ErrorIs(t, err, ErrMappingNotFound)

	all, err := repo.ListMappings(ctx, entities.KindCategory)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCanonicalRepository_ListEntitiesKeepsInsertionOrder(t *testing.T) {
	repo := NewCanonicalRepository(setupTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"zucchini fries", "apple pie", "mango lassi"} {
		_, _, err := repo.CreateEntityIfAbsent(ctx, entities.KindItem, name, name)
		require.NoError(t, err)
	}

	list, err := repo.ListEntities(ctx, entities.KindItem)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "zucchini fries", list[0].NormalizedName)
	assert.Equal(t, "apple pie", list[1].NormalizedName)
	assert.Equal(t, "mango lassi", list[2].NormalizedName)

	got, err := repo.GetEntity(ctx, entities.KindItem, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "apple pie", got.CanonicalName)

	_, err = repo.GetEntity(ctx, entities.KindItem, 999)
	require.ErrorIs(t, err, ErrEntityNotFound)
}
