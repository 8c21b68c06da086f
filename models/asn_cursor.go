package models

import "time"

const (
	// ASNCursorTypeASN is the identifier type of shipment numbers
	ASNCursorTypeASN = "ASN"

	// DefaultASNPrefix is prepended to every generated ASN number
	DefaultASNPrefix = "ASN"

	// DefaultASNNumberOfLines is the bucket capacity of a freshly created cursor
	DefaultASNNumberOfLines = 3

	// MaxASNNumberOfLines is bounded by the 5-digit line number field
	MaxASNNumberOfLines = 99999

	// MaxASNNumber is bounded by the 7-digit bucket number field
	MaxASNNumber = 9999999
)

// ASNCursor is the singleton numbering cursor of one identifier type.
// Table: asn_cursors
// Unique by Type; the row is locked for the whole allocate-and-advance sequence
// CurrentNumber is the bucket being filled, NextNumber its cached successor
// NumberOfLines is the bucket capacity
type ASNCursor struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Type string `gorm:"size:50;not null;default:'ASN';uniqueIndex:uk_asn_cursors_type" json:"type"`

	Prefix         string `gorm:"size:10;not null;default:'ASN'" json:"prefix"`
	StartingNumber string `gorm:"size:50;not null" json:"starting_number"`
	EndingNumber   string `gorm:"size:50;not null" json:"ending_number"`
	CurrentNumber  string `gorm:"size:50;not null" json:"current_number"`
	NextNumber     string `gorm:"size:50;not null" json:"next_number"`
	NumberOfLines  int    `gorm:"not null;default:0" json:"number_of_lines"`

	CreatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	CreatedUsername *string   `gorm:"size:100" json:"created_username,omitempty"`
	UpdatedUsername *string   `gorm:"size:100" json:"updated_username,omitempty"`
}

func (ASNCursor) TableName() string { return "asn_cursors" }
