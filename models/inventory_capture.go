package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory capture processing states
const (
	InventoryStatusNew       = 0
	InventoryStatusPending   = 1
	InventoryStatusProcessed = 2
)

// InventoryCapture is a captured record waiting for ASN allocation (a source record)
// Table: inventory_captures
type InventoryCapture struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_inventory_captures_uuid" json:"uuid"`

	Owner      string `gorm:"size:100;not null" json:"owner"`
	Location   string `gorm:"size:100;not null" json:"location"`
	CaseNumber string `gorm:"column:case_number;size:100;not null;default:''" json:"case"`
	SKU        string `gorm:"column:sku;size:100;not null" json:"sku"`
	UOM        string `gorm:"column:uom;size:20;not null" json:"uom"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	Username   string `gorm:"size:100;not null;default:'default_user'" json:"username"`
	Status     int    `gorm:"not null;default:0;index:idx_inventory_captures_status" json:"status"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_inventory_captures_created_at" json:"created_at"`
}

func (InventoryCapture) TableName() string {
	return "inventory_captures"
}

// InventoryCaptureFilter represents filter criteria for source record queries
type InventoryCaptureFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Owner         *string
	Status        *int
	Username      *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
