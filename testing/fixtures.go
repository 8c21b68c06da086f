package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCapture stores a source record for owner with the given status
func (tf *TestFixtures) CreateTestCapture(owner string, status int) (*models.InventoryCapture, error) {
	capture := &models.InventoryCapture{
		UUID:       uuid.New(),
		Owner:      owner,
		Location:   fmt.Sprintf("LOC-%03d", rand.Intn(1000)),
		CaseNumber: fmt.Sprintf("CASE-%06d", rand.Intn(1000000)),
		SKU:        fmt.Sprintf("SKU-%05d", rand.Intn(100000)),
		UOM:        "EA",
		Quantity:   rand.Intn(50) + 1,
		Username:   utils.DefaultUsername,
		Status:     status,
		CreatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(capture).Error; err != nil {
		return nil, fmt.Errorf("failed to create test capture: %w", err)
	}

	return capture, nil
}

// CreateTestPlacedRecord stores a placed record at the given bucket and line
func (tf *TestFixtures) CreateTestPlacedRecord(owner, asnNumber string, line int) (*models.DownloadInventory, error) {
	now := utils.UTCNow()
	record := &models.DownloadInventory{
		UUID:            uuid.New(),
		Owner:           owner,
		Location:        "LOC-001",
		CaseNumber:      fmt.Sprintf("CASE-%06d", rand.Intn(1000000)),
		SKU:             fmt.Sprintf("SKU-%05d", rand.Intn(100000)),
		UOM:             "EA",
		Quantity:        1,
		ASNNumber:       asnNumber,
		LineNumber:      models.FormatLineNumber(line),
		Status:          models.InventoryStatusPending,
		DownloadStatus:  models.DownloadStatusNo,
		UpdatedUsername: utils.ToPtr(utils.DefaultUsername),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test placed record: %w", err)
	}

	return record, nil
}

// CreateTestCursor stores an ASN cursor pointing at bucket current with the given capacity
func (tf *TestFixtures) CreateTestCursor(prefix string, current int64, capacity int) (*models.ASNCursor, error) {
	now := utils.UTCNow()
	bucket := models.NewASNNumber(prefix, current)
	cursor := &models.ASNCursor{
		Type:            models.ASNCursorTypeASN,
		Prefix:          prefix,
		StartingNumber:  models.NewASNNumber(prefix, 1).String(),
		EndingNumber:    models.NewASNNumber(prefix, models.MaxASNNumber).String(),
		CurrentNumber:   bucket.String(),
		NextNumber:      bucket.Next().String(),
		NumberOfLines:   capacity,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedUsername: utils.ToPtr(utils.DefaultUsername),
		UpdatedUsername: utils.ToPtr(utils.DefaultUsername),
	}

	if err := tf.DB.DB.Create(cursor).Error; err != nil {
		return nil, fmt.Errorf("failed to create test cursor: %w", err)
	}

	return cursor, nil
}
