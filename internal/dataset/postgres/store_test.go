package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

func sampleRecords() []wiki.CombinedRecord {
	return []wiki.CombinedRecord{
		{
			Rank:        1,
			PageID:      22193,
			Title:       "QEMU",
			Category:    "Emulators",
			YearlyViews: 431002,
			ShortDesc:   "Free emulator and virtualizer",
			WordCount:   4200,
			Quality:     wiki.GradeB,
		},
		{
			Rank:        2,
			PageID:      93192,
			Title:       "Dwarf Fortress",
			Category:    "Roguelikes",
			YearlyViews: 380555,
			ShortDesc:   "2006 video game",
			WordCount:   3100,
			Quality:     wiki.GradeGA,
		},
	}
}

func TestSaveCombinedInsertsAllRowsInOneTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "combined_records")
	require.NoError(t, err)

	runID := uuid.New()
	records := sampleRecords()

	mock.ExpectBegin()
	for _, rec := range records {
		mock.ExpectExec("INSERT INTO combined_records").
			WithArgs(
				runID,
				rec.Rank,
				rec.PageID,
				rec.Title,
				rec.Category,
				rec.YearlyViews,
				rec.ShortDesc,
				rec.WordCount,
				string(rec.Quality),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.SaveCombined(context.Background(), runID, records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCombinedRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "combined_records")
	require.NoError(t, err)

	runID := uuid.New()
	records := sampleRecords()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO combined_records").
		WithArgs(
			runID,
			records[0].Rank,
			records[0].PageID,
			records[0].Title,
			records[0].Category,
			records[0].YearlyViews,
			records[0].ShortDesc,
			records[0].WordCount,
			string(records[0].Quality),
		).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = store.SaveCombined(context.Background(), runID, records)
	require.Error(t, err)
	require.ErrorContains(t, err, "insert combined record")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCombinedEmptyInputSkipsTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock, "")
	require.NoError(t, err)

	require.NoError(t, store.SaveCombined(context.Background(), uuid.New(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewStoreWithPool(mock, "bad;drop")
	require.Error(t, err)
	require.ErrorContains(t, err, "invalid table name")
}
