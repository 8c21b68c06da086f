package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/repository"
	testingutil "github.com/amirphl/inventory-asn/testing"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASNCursorRepository(t *testing.T) {
	testingutil.RequireDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewASNCursorRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByTypeMissing", func(t *testing.T) {
			cursor, err := repo.ByType(ctx, models.ASNCursorTypeASN)
			require.NoError(t, err)
			assert.Nil(t, cursor)
		})

		t.Run("CreateIfAbsentKeepsFirstRow", func(t *testing.T) {
			created, err := fixtures.CreateTestCursor("ASN", 3, 5)
			require.NoError(t, err)

			duplicate := *created
			duplicate.ID = 0
			duplicate.CurrentNumber = "ASN0000099"
			require.NoError(t, repo.CreateIfAbsent(ctx, &duplicate))

			cursor, err := repo.ByType(ctx, models.ASNCursorTypeASN)
			require.NoError(t, err)
			require.NotNil(t, cursor)
			assert.Equal(t, created.ID, cursor.ID)
			assert.Equal(t, "ASN0000003", cursor.CurrentNumber)
			assert.Equal(t, 5, cursor.NumberOfLines)
		})

		t.Run("UpdateInTransaction", func(t *testing.T) {
			txManager := repository.NewTxManager(testDB.DB, time.Second)

			err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
				cursor, err := repo.ByTypeForUpdate(txCtx, models.ASNCursorTypeASN)
				if err != nil {
					return err
				}
				cursor.CurrentNumber = "ASN0000004"
				cursor.NextNumber = "ASN0000005"
				cursor.UpdatedUsername = utils.ToPtr("tester")
				return repo.Update(txCtx, cursor)
			})
			require.NoError(t, err)

			cursor, err := repo.ByType(ctx, models.ASNCursorTypeASN)
			require.NoError(t, err)
			assert.Equal(t, "ASN0000004", cursor.CurrentNumber)
			assert.Equal(t, "ASN0000005", cursor.NextNumber)
			require.NotNil(t, cursor.UpdatedUsername)
			assert.Equal(t, "tester", *cursor.UpdatedUsername)
		})

		t.Run("RollbackDiscardsUpdate", func(t *testing.T) {
			txManager := repository.NewTxManager(testDB.DB, 0)
			errAbort := errors.New("abort")

			err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
				cursor, err := repo.ByTypeForUpdate(txCtx, models.ASNCursorTypeASN)
				if err != nil {
					return err
				}
				cursor.CurrentNumber = "ASN0000050"
				if err := repo.Update(txCtx, cursor); err != nil {
					return err
				}
				return errAbort
			})
			require.ErrorIs(t, err, errAbort)

			cursor, err := repo.ByType(ctx, models.ASNCursorTypeASN)
			require.NoError(t, err)
			assert.Equal(t, "ASN0000004", cursor.CurrentNumber)
		})

		t.Run("UpdateUnknownID", func(t *testing.T) {
			err := repo.Update(ctx, &models.ASNCursor{ID: 9999, CurrentNumber: "ASN0000001"})
			assert.Error(t, err)
		})
	})
}

func TestDownloadInventoryRepository(t *testing.T) {
	testingutil.RequireDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewDownloadInventoryRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		for line := 1; line <= 3; line++ {
			_, err := fixtures.CreateTestPlacedRecord("A", "ASN0000001", line)
			require.NoError(t, err)
		}
		_, err := fixtures.CreateTestPlacedRecord("B", "ASN0000002", 1)
		require.NoError(t, err)

		t.Run("LastLineInBucket", func(t *testing.T) {
			last, err := repo.LastLineInBucket(ctx, "ASN0000001")
			require.NoError(t, err)
			require.NotNil(t, last)
			assert.Equal(t, "00003", last.LineNumber)

			last, err = repo.LastLineInBucket(ctx, "ASN0000003")
			require.NoError(t, err)
			assert.Nil(t, last)
		})

		t.Run("DuplicateLineRejected", func(t *testing.T) {
			_, err := fixtures.CreateTestPlacedRecord("A", "ASN0000001", 2)
			assert.Error(t, err)
		})

		t.Run("ListByASN", func(t *testing.T) {
			records, err := repo.ListByASN(ctx, "ASN0000001")
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "00001", records[0].LineNumber)
			assert.Equal(t, "00003", records[2].LineNumber)
		})

		t.Run("MarkDownloaded", func(t *testing.T) {
			txManager := repository.NewTxManager(testDB.DB, time.Second)
			err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
				pending, err := repo.ListNotDownloadedForUpdate(txCtx)
				if err != nil {
					return err
				}
				if len(pending) != 4 {
					return errors.New("expected four pending records")
				}
				return repo.MarkDownloaded(txCtx, []uint{pending[0].ID, pending[3].ID}, "exporter")
			})
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.DownloadInventoryFilter{DownloadStatus: utils.ToPtr(models.DownloadStatusYes)})
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)

			err = repo.MarkDownloaded(ctx, []uint{99999}, "exporter")
			assert.Error(t, err)
		})

		t.Run("FilterByOwner", func(t *testing.T) {
			records, err := repo.ByFilter(ctx, models.DownloadInventoryFilter{Owner: utils.ToPtr("B")}, "", 10, 0)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "ASN0000002", records[0].ASNNumber)

			exists, err := repo.Exists(ctx, models.DownloadInventoryFilter{Owner: utils.ToPtr("Z")})
			require.NoError(t, err)
			assert.False(t, exists)
		})
	})
}

func TestInventoryCaptureRepository(t *testing.T) {
	testingutil.RequireDB(t, func(testDB *testingutil.TestDB) {
		repo := repository.NewInventoryCaptureRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		first, err := fixtures.CreateTestCapture("A", models.InventoryStatusNew)
		require.NoError(t, err)
		second, err := fixtures.CreateTestCapture("B", models.InventoryStatusNew)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCapture("C", models.InventoryStatusProcessed)
		require.NoError(t, err)

		t.Run("ListByStatusForUpdate", func(t *testing.T) {
			captures, err := repo.ListByStatusForUpdate(ctx, models.InventoryStatusNew)
			require.NoError(t, err)
			require.Len(t, captures, 2)
			assert.Equal(t, first.ID, captures[0].ID, "capture order")
			assert.Equal(t, second.ID, captures[1].ID)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			require.NoError(t, repo.UpdateStatus(ctx, []uint{first.ID, second.ID}, models.InventoryStatusProcessed))

			count, err := repo.Count(ctx, models.InventoryCaptureFilter{Status: utils.ToPtr(models.InventoryStatusProcessed)})
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		t.Run("SaveKeepsZeroStatus", func(t *testing.T) {
			capture, err := fixtures.CreateTestCapture("D", models.InventoryStatusNew)
			require.NoError(t, err)

			stored, err := repo.ByID(ctx, capture.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, models.InventoryStatusNew, stored.Status)
		})

		t.Run("ClearAllTables", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			count, err := repo.Count(ctx, models.InventoryCaptureFilter{})
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	})
}
