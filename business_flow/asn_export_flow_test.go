package businessflow

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/amirphl/inventory-asn/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func openWorkbook(t *testing.T, content []byte) *excelize.File {
	t.Helper()
	xl, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	t.Cleanup(func() { _ = xl.Close() })
	return xl
}

func sheetRows(t *testing.T, xl *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := xl.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestASNExportFlowExport(t *testing.T) {
	env := newTestEnv(t, 3)
	env.allocate(t, "A", 2)
	env.allocate(t, "B", 1)

	metadata := NewClientMetadata("127.0.0.1", "test")
	metadata.SetUsername("exporter")

	filename, content, err := env.exportFlow.Export(context.Background(), metadata)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^inventory_data_\d{8}_\d{6}\.xlsx$`), filename)

	xl := openWorkbook(t, content)
	assert.Equal(t, []string{"Data", "Detail", "Validations"}, xl.GetSheetList())

	data := sheetRows(t, xl, "Data")
	require.Len(t, data, 4)
	assert.Equal(t, "ASN/Receipt", data[1][2])
	assert.Equal(t, []string{"ASN0000001", "A", "0"}, data[2][2:5])
	assert.Equal(t, []string{"ASN0000002", "B", "0"}, data[3][2:5])

	detail := sheetRows(t, xl, "Detail")
	require.Len(t, detail, 5)
	assert.Equal(t, []string{"ASN0000001", "SKU-1", "A", "00001", "1", "EA", "CASE-1", "LOC-1"}, detail[2][2:10])
	assert.Equal(t, "00002", detail[3][5])
	assert.Equal(t, "ASN0000002", detail[4][2])

	for _, r := range env.store.allRecords() {
		assert.Equal(t, models.DownloadStatusYes, r.DownloadStatus)
		require.NotNil(t, r.UpdatedUsername)
		assert.Equal(t, "exporter", *r.UpdatedUsername)
	}

	// The exported bucket is closed for good
	assert.Equal(t, "ASN0000003", env.store.cursor(models.ASNCursorTypeASN).CurrentNumber)
	next := env.allocate(t, "B", 1)
	assert.Equal(t, []string{"ASN0000003"}, next.Buckets)

	t.Run("OnlyPendingRecordsAreExported", func(t *testing.T) {
		_, content, err := env.exportFlow.Export(context.Background(), nil)
		require.NoError(t, err)

		detail := sheetRows(t, openWorkbook(t, content), "Detail")
		require.Len(t, detail, 3)
		assert.Equal(t, "ASN0000003", detail[2][2])
	})

	t.Run("NothingLeft", func(t *testing.T) {
		_, _, err := env.exportFlow.Export(context.Background(), nil)
		assert.True(t, IsNothingToExport(err))
	})
}

func TestASNExportFlowNothingToExport(t *testing.T) {
	env := newTestEnv(t, 3)
	env.seedCursor(t, "ASN", 4, 3, "ASN9999999")

	_, _, err := env.exportFlow.Export(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsNothingToExport(err))
	assert.Equal(t, "ASN0000004", env.store.cursor(models.ASNCursorTypeASN).CurrentNumber)
}

func TestASNExportFlowRollsBack(t *testing.T) {
	t.Run("MarkDownloadedFails", func(t *testing.T) {
		env := newTestEnv(t, 3)
		env.allocate(t, "A", 1)
		env.store.failMarkDownloaded = true

		_, _, err := env.exportFlow.Export(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, IsPersistence(err))

		assert.Equal(t, models.DownloadStatusNo, env.store.allRecords()[0].DownloadStatus)
		assert.Equal(t, "ASN0000001", env.store.cursor(models.ASNCursorTypeASN).CurrentNumber)
	})

	t.Run("CursorAdvanceFails", func(t *testing.T) {
		env := newTestEnv(t, 3)
		env.allocate(t, "A", 1)
		env.store.failCursorUpdate = true

		_, _, err := env.exportFlow.Export(context.Background(), nil)
		require.Error(t, err)

		assert.Equal(t, models.DownloadStatusNo, env.store.allRecords()[0].DownloadStatus)
	})
}

func TestASNExportFlowStaleCursor(t *testing.T) {
	env := newTestEnv(t, 3)
	env.seedCursor(t, "OLD", 5, 3, "OLD9999999")
	require.NoError(t, env.recordRepo.SaveBatch(context.Background(), []*models.DownloadInventory{{
		Owner:          "A",
		ASNNumber:      "OLD0000005",
		LineNumber:     "00001",
		DownloadStatus: models.DownloadStatusNo,
	}}))

	_, _, err := env.exportFlow.Export(context.Background(), nil)
	require.NoError(t, err)

	cursor := env.store.cursor(models.ASNCursorTypeASN)
	assert.Equal(t, "ASN", cursor.Prefix)
	assert.Equal(t, "ASN0000006", cursor.CurrentNumber)
}

func TestBuildASNWorkbook(t *testing.T) {
	records := []*models.DownloadInventory{
		{Owner: "A", ASNNumber: "ASN0000001", LineNumber: "00001", SKU: "S1", Quantity: 3, UOM: "EA", CaseNumber: "C1", Location: "L1"},
		{Owner: "A", ASNNumber: "ASN0000001", LineNumber: "00002", SKU: "S2", Quantity: 4, UOM: "CS", CaseNumber: "C2", Location: "L1"},
		{Owner: "B", ASNNumber: "ASN0000002", LineNumber: "00001", SKU: "S3", Quantity: 5, UOM: "EA", CaseNumber: "", Location: "L2"},
	}

	t.Run("Layout", func(t *testing.T) {
		content, err := buildASNWorkbook(records, "America/Chicago")
		require.NoError(t, err)
		xl := openWorkbook(t, content)

		data := sheetRows(t, xl, "Data")
		require.Len(t, data, 4, "one row per distinct bucket and owner")
		assert.Equal(t, "RECEIPTKEY", data[0][2])

		detail := sheetRows(t, xl, "Detail")
		require.Len(t, detail, 5)
		assert.Equal(t, []string{"Messages", "GenericKey", "ASN/Receipt", "Item", "Owner", "Line #", "Expected Qty", "UOM", "LPN", "Location"}, detail[1])
		assert.Equal(t, "4", detail[3][6])
		assert.Equal(t, "CS", detail[3][7])

		validations := sheetRows(t, xl, "Validations")
		require.Len(t, validations, 3)
		assert.Equal(t, []string{"Time Zone", "(GMT-06:00) Central Time (US & Canada)", "America/Chicago"}, validations[1])
	})

	t.Run("UnknownTimeZonePassesThrough", func(t *testing.T) {
		content, err := buildASNWorkbook(records, "Asia/Tehran")
		require.NoError(t, err)

		validations := sheetRows(t, openWorkbook(t, content), "Validations")
		assert.Equal(t, "Asia/Tehran", validations[1][1])
	})
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "inventory_data_20240102_030405.xlsx", exportFilename(at))
}
