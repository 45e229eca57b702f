package repositories

import (
	"context"
	"testing"
	"time"

	"folio/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPageViews(t *testing.T, repo *BunPageViewRepository, base time.Time) {
	t.Helper()
	views := []struct {
		url string
		at  time.Time
	}{
		{"/blog/a", base},
		{"/blog/a", base.Add(time.Hour)},
		{"/blog/a", base.Add(-24 * time.Hour)},
		{"/blog/b", base},
		{"/blog/b", base.Add(-48 * time.Hour)},
		{"/about", base.Add(-10 * 24 * time.Hour)},
	}
	for _, v := range views {
		require.NoError(t, repo.Insert(context.Background(), &models.PageView{URL: v.url, Date: v.at}))
	}
}

func TestPageViewRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBunPageViewRepository(newTestDB(t))
	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	seedPageViews(t, repo, base)

	t.Run("count by url", func(t *testing.T) {
		n, err := repo.CountByURL(ctx, "/blog/a")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = repo.CountByURL(ctx, "/never")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("totals without filter", func(t *testing.T) {
		views, unique, err := repo.Totals(ctx, PageViewFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(6), views)
		assert.Equal(t, int64(3), unique)
	})

	t.Run("totals within a week", func(t *testing.T) {
		f := PageViewFilter{From: base.Add(-7 * 24 * time.Hour), To: base.Add(2 * time.Hour)}
		views, unique, err := repo.Totals(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(5), views)
		assert.Equal(t, int64(2), unique)
	})

	t.Run("totals with search", func(t *testing.T) {
		views, unique, err := repo.Totals(ctx, PageViewFilter{Search: "blog/b"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), views)
		assert.Equal(t, int64(1), unique)
	})

	t.Run("daily counts", func(t *testing.T) {
		counts, err := repo.DailyCounts(ctx, PageViewFilter{From: base.Add(-3 * 24 * time.Hour), To: base.Add(2 * time.Hour)})
		require.NoError(t, err)
		assert.Equal(t, []DailyCount{
			{Day: "2024-06-13", Count: 1},
			{Day: "2024-06-14", Count: 1},
			{Day: "2024-06-15", Count: 3},
		}, counts)
	})

	t.Run("views per url are paged by count", func(t *testing.T) {
		page, err := repo.ViewsPerURL(ctx, PageViewFilter{}, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, []URLCount{
			{URL: "/blog/a", PageViews: 3},
			{URL: "/blog/b", PageViews: 2},
		}, page)

		page, err = repo.ViewsPerURL(ctx, PageViewFilter{}, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, []URLCount{{URL: "/about", PageViews: 1}}, page)

		page, err = repo.ViewsPerURL(ctx, PageViewFilter{}, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("insert rejects empty url", func(t *testing.T) {
		assert.Error(t, repo.Insert(ctx, &models.PageView{Date: base}))
	})
}
