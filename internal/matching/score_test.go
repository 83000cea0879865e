package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reuniteapp/reunite-api/internal/models"
)

func newScorer() *Scorer {
	return NewScorer(DefaultWeights(), NewExtractor(nil, 20))
}

func item(mods ...func(*models.Item)) *models.Item {
	it := &models.Item{
		ID:        "item-1",
		Type:      models.ItemTypeLost,
		Status:    models.ItemStatusOpen,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	for _, m := range mods {
		m(it)
	}
	return it
}

func TestScoreCategoryMatchOnly(t *testing.T) {
	s := newScorer()
	a := item(func(i *models.Item) {
		i.Category = "electronics"
		i.Keywords = []string{"umbrella", "plaid"}
	})
	b := item(func(i *models.Item) {
		i.ID = "item-2"
		i.Category = "electronics"
		i.Keywords = []string{"gadget", "silver"}
	})

	score, breakdown := s.Score(a, b)
	require.Equal(t, 40, score)
	require.True(t, breakdown.CategoryMatched)
	require.False(t, breakdown.LocationMatched)
	require.Zero(t, breakdown.KeywordOverlap)
}

func TestScoreCategoryIsCaseSensitive(t *testing.T) {
	s := newScorer()
	a := item(func(i *models.Item) { i.Category = "Electronics"; i.Keywords = []string{"aaa"} })
	b := item(func(i *models.Item) { i.Category = "electronics"; i.Keywords = []string{"bbb"} })

	score, breakdown := s.Score(a, b)
	require.Zero(t, score)
	require.False(t, breakdown.CategoryMatched)
}

func TestScoreEmptyCategoriesNeverMatch(t *testing.T) {
	s := newScorer()
	a := item(func(i *models.Item) { i.Keywords = []string{"aaa"} })
	b := item(func(i *models.Item) { i.Keywords = []string{"bbb"} })

	score, _ := s.Score(a, b)
	require.Zero(t, score)
}

func TestScoreLocationTiers(t *testing.T) {
	s := newScorer()
	cases := []struct {
		name string
		locA string
		locB string
		want int
	}{
		{"exact", "central park", "central park", 30},
		{"substring", "central park", "central park west gate", 21},
		{"shared token", "park fountain", "fountain plaza", 15},
		{"no overlap", "east wing", "west hall", 0},
		{"one empty", "", "central park", 0},
		{"short shared token only", "gate b2", "pier b2", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := item(func(i *models.Item) {
				i.NormalizedLocation = tc.locA
				i.Keywords = []string{"aaa"}
			})
			b := item(func(i *models.Item) {
				i.ID = "item-2"
				i.NormalizedLocation = tc.locB
				i.Keywords = []string{"bbb"}
			})
			score, breakdown := s.Score(a, b)
			require.Equal(t, tc.want, score)
			require.Equal(t, tc.want > 0, breakdown.LocationMatched)
		})
	}
}

func TestScoreKeywordContribution(t *testing.T) {
	s := newScorer()
	a := item(func(i *models.Item) { i.Keywords = []string{"blue", "wallet", "leather"} })
	b := item(func(i *models.Item) {
		i.ID = "item-2"
		i.Keywords = []string{"blue", "wallet", "stolen"}
	})

	// jaccard 2/4, overlap bonus 2/5*0.3, (0.5+0.12)*30 = 18.6.
	score, breakdown := s.Score(a, b)
	require.Equal(t, 19, score)
	require.Equal(t, 2, breakdown.KeywordOverlap)
	require.Equal(t, []string{"blue", "wallet"}, breakdown.SharedKeywords)
}

func TestScoreSharedKeywordsCappedAtFive(t *testing.T) {
	s := newScorer()
	kws := []string{"one1", "two2", "three", "four", "five", "six6", "seven"}
	a := item(func(i *models.Item) { i.Keywords = kws })
	b := item(func(i *models.Item) { i.ID = "item-2"; i.Keywords = kws })

	_, breakdown := s.Score(a, b)
	require.Equal(t, 7, breakdown.KeywordOverlap)
	require.Equal(t, kws[:5], breakdown.SharedKeywords)
}

func TestScoreFallsBackToFreshExtraction(t *testing.T) {
	s := newScorer()
	a := item(func(i *models.Item) {
		i.Title = "Blue wallet"
		i.Description = "leather, monogrammed"
		i.Location = "  Central Park  "
	})
	b := item(func(i *models.Item) {
		i.ID = "item-2"
		i.Title = "Found blue wallet"
		i.Description = "leather with monogram"
		i.NormalizedLocation = "central park"
		i.Keywords = []string{"blue", "wallet", "leather", "monogram"}
	})

	score, breakdown := s.Score(a, b)
	require.True(t, breakdown.LocationMatched)
	require.Equal(t, 3, breakdown.KeywordOverlap)
	require.Greater(t, score, 30)
}

func TestScoreIdenticalItemsClampTo100(t *testing.T) {
	s := newScorer()
	mk := func(id string) *models.Item {
		return item(func(i *models.Item) {
			i.ID = id
			i.Title = "Black umbrella with wooden handle"
			i.Description = "left beside the station kiosk"
			i.Category = "accessories"
			i.NormalizedLocation = "grand station"
			i.Keywords = []string{"black", "umbrella", "wooden", "handle", "station", "kiosk"}
		})
	}

	score, breakdown := s.Score(mk("a"), mk("b"))
	require.Equal(t, 100, score)
	require.True(t, breakdown.CategoryMatched)
	require.True(t, breakdown.LocationMatched)
	require.Equal(t, 6, breakdown.KeywordOverlap)
}

func TestScoreEmptyItems(t *testing.T) {
	s := newScorer()
	score, breakdown := s.Score(item(), item(func(i *models.Item) { i.ID = "item-2" }))
	require.Zero(t, score)
	require.Equal(t, models.MatchBreakdown{}, breakdown)
}

func TestScoreMagnitudeIsArgumentOrderInsensitive(t *testing.T) {
	s := newScorer()
	a := item(func(i *models.Item) {
		i.Category = "bags"
		i.NormalizedLocation = "airport terminal 2"
		i.Keywords = []string{"duffel", "green", "nike"}
	})
	b := item(func(i *models.Item) {
		i.ID = "item-2"
		i.Category = "bags"
		i.NormalizedLocation = "terminal 2"
		i.Keywords = []string{"green", "duffel", "adidas"}
	})

	ab, _ := s.Score(a, b)
	ba, _ := s.Score(b, a)
	require.Equal(t, ab, ba)
}

func TestFinderRankFiltersAndOrders(t *testing.T) {
	now := time.Now().UTC()
	finder := NewFinder(newScorer(), 50, 3)

	subject := item(func(i *models.Item) {
		i.ID = "subject"
		i.Category = "electronics"
		i.NormalizedLocation = "main library"
		i.Keywords = []string{"silver", "laptop", "dell", "sticker"}
	})

	perfect := func(id string) *models.Item {
		return item(func(i *models.Item) {
			i.ID = id
			i.Type = models.ItemTypeFound
			i.Category = "electronics"
			i.NormalizedLocation = "main library"
			i.Keywords = []string{"silver", "laptop", "dell", "sticker"}
		})
	}
	categoryOnly := item(func(i *models.Item) {
		i.ID = "category-only"
		i.Type = models.ItemTypeFound
		i.Category = "electronics"
		i.Keywords = []string{"unrelated"}
	})
	partial := item(func(i *models.Item) {
		i.ID = "partial"
		i.Type = models.ItemTypeFound
		i.Category = "electronics"
		i.NormalizedLocation = "library annex"
		i.Keywords = []string{"laptop", "charger"}
	})
	expired := perfect("expired")
	expired.ExpiresAt = now.Add(-time.Hour)

	pool := []*models.Item{categoryOnly, expired, partial, perfect("p1"), perfect("p2"), perfect("p3")}

	got := finder.Rank(subject, pool, now)
	require.Len(t, got, 3)
	for _, c := range got {
		require.GreaterOrEqual(t, c.Score, 50)
		require.NotEqual(t, "expired", c.Item.ID)
		require.NotEqual(t, "category-only", c.Item.ID, "below-threshold candidate must be dropped")
	}
	require.Equal(t, "p1", got[0].Item.ID)
	require.Equal(t, "p2", got[1].Item.ID)
	require.Equal(t, "p3", got[2].Item.ID)
}

func TestFinderRankStableTieBreak(t *testing.T) {
	finder := NewFinder(newScorer(), 50, 3)
	subject := item(func(i *models.Item) {
		i.ID = "subject"
		i.Category = "keys"
		i.NormalizedLocation = "gym lobby"
		i.Keywords = []string{"keychain", "red"}
	})

	twin := func(id string) *models.Item {
		return item(func(i *models.Item) {
			i.ID = id
			i.Type = models.ItemTypeFound
			i.Category = "keys"
			i.NormalizedLocation = "gym lobby"
			i.Keywords = []string{"keychain"}
		})
	}
	pool := []*models.Item{twin("first"), twin("second"), twin("third")}

	got := finder.Rank(subject, pool, time.Now().UTC())
	require.Len(t, got, 3)
	require.Equal(t, "first", got[0].Item.ID)
	require.Equal(t, "second", got[1].Item.ID)
	require.Equal(t, "third", got[2].Item.ID)
}

func TestFinderRankIsIdempotent(t *testing.T) {
	finder := NewFinder(newScorer(), 50, 3)
	now := time.Now().UTC()
	subject := item(func(i *models.Item) {
		i.ID = "subject"
		i.Category = "bags"
		i.NormalizedLocation = "bus depot"
		i.Keywords = []string{"backpack", "gray"}
	})
	pool := []*models.Item{
		item(func(i *models.Item) {
			i.ID = "c1"
			i.Type = models.ItemTypeFound
			i.Category = "bags"
			i.NormalizedLocation = "bus depot"
			i.Keywords = []string{"backpack"}
		}),
	}

	first := finder.Rank(subject, pool, now)
	second := finder.Rank(subject, pool, now)
	require.Equal(t, first, second)
}

func TestFinderRankEmptyPool(t *testing.T) {
	finder := NewFinder(newScorer(), 50, 3)
	require.Empty(t, finder.Rank(item(), nil, time.Now().UTC()))
}
