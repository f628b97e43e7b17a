package adapters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quranchallenge/server/domain/entities"
)

func readingAt(masjid, child string, at time.Time, categories ...entities.Category) *entities.Reading {
	r := entities.NewReading(masjid, child, categories)
	r.SubmissionDate = at
	return r
}

func TestMemoryReadingRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReadingRepository()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := readingAt("Al-Noor", "Ali", base, entities.CategoryQuran)
	second := readingAt("Al-Noor", "Ali", base.Add(time.Hour), entities.CategoryDua, entities.CategoryHifdh)
	other := readingAt("Al-Noor", "Sara", base, entities.CategoryHadith)

	for _, r := range []*entities.Reading{first, second, other} {
		require.NoError(t, repo.Create(ctx, r))
		assert.False(t, r.ID.IsZero())
	}
	assert.Equal(t, 3, repo.Count())

	got, err := repo.GetByChildName(ctx, "Ali")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID, "newest first")
	assert.Equal(t, first.ID, got[1].ID)

	// Returned readings are copies
	got[0].Categories[0] = entities.CategoryQuran
	again, err := repo.GetByChildName(ctx, "Ali")
	require.NoError(t, err)
	assert.Equal(t, entities.CategoryDua, again[0].Categories[0])

	none, err := repo.GetByChildName(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryReadingRepository_RejectsInvalid(t *testing.T) {
	repo := NewMemoryReadingRepository()

	assert.Error(t, repo.Create(context.Background(), nil))
	assert.Error(t, repo.Create(context.Background(), entities.NewReading("Al-Noor", "Ali", nil)))
	assert.Equal(t, 0, repo.Count())
}

func TestMemoryReadingRepository_Leaderboard(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReadingRepository()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, readingAt("Al-Noor", "Ali", base, entities.CategoryQuran, entities.CategoryHifdh)))
	require.NoError(t, repo.Create(ctx, readingAt("Al-Noor", "Sara", base.Add(time.Minute), entities.CategoryDua)))
	require.NoError(t, repo.Create(ctx, readingAt("Al-Huda", "Ali", base.Add(2*time.Minute), entities.CategoryDua)))
	require.NoError(t, repo.Create(ctx, readingAt("Al-Falah", "Omar", base, entities.CategoryDua)))

	t.Run("ByMasjid", func(t *testing.T) {
		entries, err := repo.Leaderboard(ctx, entities.GroupByMasjid, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "Al-Noor", entries[0].Masjid)
		assert.Equal(t, 3, entries[0].TotalReadings)
		assert.Equal(t, 2, entries[0].UniqueChildren)
		assert.Equal(t, 2, entries[0].Submissions)
		assert.Equal(t, base.Add(time.Minute), entries[0].LastReading)

		// Equal totals break on the most recent reading
		assert.Equal(t, "Al-Huda", entries[1].Masjid)
		assert.Equal(t, "Al-Falah", entries[2].Masjid)
	})

	t.Run("ByChild", func(t *testing.T) {
		entries, err := repo.Leaderboard(ctx, entities.GroupByChild, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "Ali", entries[0].ChildName)
		assert.Equal(t, 3, entries[0].TotalReadings)
		assert.Equal(t, 0, entries[0].UniqueChildren)
		assert.Empty(t, entries[0].Masjid)
	})

	t.Run("Limit", func(t *testing.T) {
		entries, err := repo.Leaderboard(ctx, entities.GroupByMasjid, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestMemoryReadingRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReadingRepository()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalReadings)
	assert.NotNil(t, empty.ReadingsByType)

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, readingAt("Al-Noor", "Ali", now, entities.CategoryQuran, entities.CategoryHifdh)))
	require.NoError(t, repo.Create(ctx, readingAt("Al-Huda", "Ali", now, entities.CategoryQuran)))
	require.NoError(t, repo.Create(ctx, readingAt("Al-Huda", "Sara", now, entities.CategoryDua)))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalReadings)
	assert.Equal(t, 2, stats.TotalChildren)
	assert.Equal(t, 2, stats.TotalMasjids)
	assert.Equal(t, 2, stats.ReadingsByType[entities.CategoryQuran])
	assert.Equal(t, 1, stats.ReadingsByType[entities.CategoryHifdh])
	assert.Equal(t, 1, stats.ReadingsByType[entities.CategoryDua])

	sum := 0
	for _, n := range stats.ReadingsByType {
		sum += n
	}
	assert.Equal(t, stats.TotalReadings, sum)
}

func TestMemoryReadingRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReadingRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Create(ctx, entities.NewReading("Al-Noor", "Ali", []entities.Category{entities.CategoryDua}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, repo.Count())
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.TotalReadings)
}
