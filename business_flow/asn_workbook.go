package businessflow

import (
	"fmt"
	"time"

	"github.com/amirphl/inventory-asn/models"
	"github.com/xuri/excelize/v2"
)

const (
	workbookSheetData        = "Data"
	workbookSheetDetail      = "Detail"
	workbookSheetValidations = "Validations"

	// receiptStatusNew is the receipt status written for every exported bucket
	receiptStatusNew = 0
)

var (
	dataSheetDescription = []any{"Column Name", "GenericKey", "RECEIPTKEY", "STORERKEY", "STATUS"}
	dataSheetHeader      = []any{"Messages", "GenericKey", "ASN/Receipt", "Owner", "Receipt Status"}

	detailSheetDescription = []any{"Column Name", "GenericKey", "RECEIPTKEY", "SKU", "STORERKEY", "RECEIPTLINENUMBER", "QTYEXPECTED", "UOM", "TOID", "TOLOC"}
	detailSheetHeader      = []any{"Messages", "GenericKey", "ASN/Receipt", "Item", "Owner", "Line #", "Expected Qty", "UOM", "LPN", "Location"}

	timeZoneLabels = map[string]string{
		"America/New_York":    "(GMT-05:00) Eastern Time (US & Canada)",
		"America/Chicago":     "(GMT-06:00) Central Time (US & Canada)",
		"America/Denver":      "(GMT-07:00) Mountain Time (US & Canada)",
		"America/Los_Angeles": "(GMT-08:00) Pacific Time (US & Canada)",
		"UTC":                 "(GMT+00:00) Coordinated Universal Time",
	}
)

// exportFilename names a workbook after the moment it was built
func exportFilename(at time.Time) string {
	return fmt.Sprintf("inventory_data_%s.xlsx", at.Format("20060102_150405"))
}

// buildASNWorkbook renders records into the receipt import layout:
// Data holds one row per distinct (bucket, owner), Detail one row per line
func buildASNWorkbook(records []*models.DownloadInventory, timeZone string) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	xl.SetSheetName(xl.GetSheetName(0), workbookSheetData)
	if _, err := xl.NewSheet(workbookSheetDetail); err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to create detail sheet", fmt.Errorf("%w: %w", ErrExportBuildError, err))
	}
	if _, err := xl.NewSheet(workbookSheetValidations); err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to create validations sheet", fmt.Errorf("%w: %w", ErrExportBuildError, err))
	}

	dataRows := [][]any{dataSheetDescription, dataSheetHeader}
	seen := make(map[[2]string]bool)
	for _, r := range records {
		key := [2]string{r.ASNNumber, r.Owner}
		if seen[key] {
			continue
		}
		seen[key] = true
		dataRows = append(dataRows, []any{"", "", r.ASNNumber, r.Owner, receiptStatusNew})
	}

	detailRows := [][]any{detailSheetDescription, detailSheetHeader}
	for _, r := range records {
		detailRows = append(detailRows, []any{"", "", r.ASNNumber, r.SKU, r.Owner, r.LineNumber, r.Quantity, r.UOM, r.CaseNumber, r.Location})
	}

	tzLabel, ok := timeZoneLabels[timeZone]
	if !ok {
		tzLabel = timeZone
	}
	validationRows := [][]any{
		{"Date Format", "M/d/yy h:mm a", "MM=Month, dd=Day, yy=Year, mm=Minute, hh=Hour"},
		{"Time Zone", tzLabel, timeZone},
		{"Empty Fields", "[blank]", "Put [blank] to remove existing values"},
	}

	for sheet, rows := range map[string][][]any{
		workbookSheetData:        dataRows,
		workbookSheetDetail:      detailRows,
		workbookSheetValidations: validationRows,
	} {
		if err := writeSheetRows(xl, sheet, rows); err != nil {
			return nil, err
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", fmt.Errorf("%w: %w", ErrExportBuildError, err))
	}
	return buf.Bytes(), nil
}

func writeSheetRows(xl *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return NewBusinessError("EXCEL_WRITE_ERROR", "Invalid cell reference", fmt.Errorf("%w: %w", ErrExportBuildError, err))
		}
		if err := xl.SetSheetRow(sheet, cellRef, &row); err != nil {
			return NewBusinessErrorf("EXCEL_WRITE_ERROR", "Failed to write %s sheet", fmt.Errorf("%w: %w", ErrExportBuildError, err), sheet)
		}
	}
	return nil
}
