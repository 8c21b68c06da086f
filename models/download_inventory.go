// Package models contains domain entities for inventory capture and ASN allocation
package models

import (
	"time"

	"github.com/google/uuid"
)

// Download status values of a placed record
const (
	DownloadStatusNo  = "no"
	DownloadStatusYes = "yes"
)

// DownloadInventory is one allocated line of a bucket (a placed record).
// Table: download_inventories
// Unique by (asn_number, line_number); the owner is the same for every line of a bucket
// Only DownloadStatus changes after creation
type DownloadInventory struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_download_inventories_uuid" json:"uuid"`

	Owner      string `gorm:"size:100;not null" json:"owner"`
	Location   string `gorm:"size:100;not null" json:"location"`
	CaseNumber string `gorm:"column:case_number;size:100;not null;default:''" json:"case"`
	SKU        string `gorm:"column:sku;size:100;not null" json:"sku"`
	UOM        string `gorm:"column:uom;size:20;not null" json:"uom"`
	Quantity   int    `gorm:"not null" json:"quantity"`

	ASNNumber  string `gorm:"column:asn_number;size:20;not null;uniqueIndex:uk_download_inventories_asn_line,priority:1;index:idx_download_inventories_asn_number" json:"asn_number"`
	LineNumber string `gorm:"size:6;not null;uniqueIndex:uk_download_inventories_asn_line,priority:2" json:"line_number"`

	Status         int    `gorm:"not null" json:"status"`
	DownloadStatus string `gorm:"size:3;not null;default:'no';index:idx_download_inventories_download_status" json:"download_status"`

	UpdatedUsername *string   `gorm:"size:100" json:"updated_username,omitempty"`
	CreatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (DownloadInventory) TableName() string {
	return "download_inventories"
}

// DownloadInventoryFilter represents filter criteria for placed record queries
type DownloadInventoryFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	Owner          *string
	ASNNumber      *string
	DownloadStatus *string
	Status         *int
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
