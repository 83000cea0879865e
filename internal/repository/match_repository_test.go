package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reuniteapp/reunite-api/internal/models"
)

func TestMatchInsertCreatesRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("m1")
	mock.ExpectQuery("INSERT INTO matches").
		WithArgs(sqlmock.AnyArg(), "lost-1", "found-1", 87, sqlmock.AnyArg(), "NOTIFIED", sqlmock.AnyArg()).
		WillReturnRows(rows)

	record := &models.MatchRecord{
		LostItemID:  "lost-1",
		FoundItemID: "found-1",
		Score:       87,
		MatchedOn:   models.MatchBreakdown{CategoryMatched: true, KeywordOverlap: 2},
	}
	created, err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "m1", record.ID)
	assert.Equal(t, models.MatchStatusNotified, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchInsertDuplicatePair(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	// ON CONFLICT DO NOTHING returns no row when the pair exists.
	mock.ExpectQuery("INSERT INTO matches").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	record := &models.MatchRecord{LostItemID: "lost-1", FoundItemID: "found-1", Score: 87}
	created, err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM matches WHERE lost_item_id = $1 AND found_item_id = $2)")).
		WithArgs("lost-1", "found-1").
		WillReturnRows(rows)

	exists, err := repo.Exists(context.Background(), "lost-1", "found-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchListForItem(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMatchRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "lost_item_id", "found_item_id", "score", "matched_on", "status", "created_at"}).
		AddRow("m1", "lost-1", "found-1", 87, []byte(`{"category_matched":true,"location_matched":false,"keyword_overlap":2,"shared_keywords":["blue","wallet"]}`), "NOTIFIED", now).
		AddRow("m2", "lost-1", "found-2", 55, []byte(`{"category_matched":true,"location_matched":false,"keyword_overlap":0}`), "NOTIFIED", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + matchColumns + " FROM matches WHERE lost_item_id = $1 OR found_item_id = $1 ORDER BY score DESC, created_at ASC")).
		WithArgs("lost-1").
		WillReturnRows(rows)

	records, err := repo.ListForItem(context.Background(), "lost-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 87, records[0].Score)
	assert.Equal(t, models.MatchStatusNotified, records[0].Status)
	assert.True(t, records[0].MatchedOn.CategoryMatched)
	assert.Equal(t, []string{"blue", "wallet"}, records[0].MatchedOn.SharedKeywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}
