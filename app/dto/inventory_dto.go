// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CaptureInventoryRequest represents one captured inventory line waiting for an ASN
type CaptureInventoryRequest struct {
	Owner    string `json:"owner" validate:"required,max=100"`
	Location string `json:"location" validate:"required,max=100"`
	Case     string `json:"case" validate:"omitempty,max=100"`
	SKU      string `json:"sku" validate:"required,max=100"`
	UOM      string `json:"uom" validate:"required,max=20"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
	Status   *int   `json:"status,omitempty" validate:"omitempty,oneof=0 1 2"`
}

// InventoryCaptureDTO represents a captured source record for responses
type InventoryCaptureDTO struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	Owner     string `json:"owner"`
	Location  string `json:"location"`
	Case      string `json:"case"`
	SKU       string `json:"sku"`
	UOM       string `json:"uom"`
	Quantity  int    `json:"quantity"`
	Username  string `json:"username"`
	Status    int    `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ListInventoryCapturesRequest filters captured source records
type ListInventoryCapturesRequest struct {
	Status   *int `query:"status" validate:"omitempty,oneof=0 1 2"`
	Page     int  `query:"page" validate:"omitempty,gte=1"`
	PageSize int  `query:"page_size" validate:"omitempty,gte=1,lte=500"`
}

// ListInventoryCapturesResponse wraps a page of source records
type ListInventoryCapturesResponse struct {
	Items    []InventoryCaptureDTO `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// AllocateASNRequest asks for record_count line slots of one inventory tuple
// is_export_reservation additionally reserves the bucket after the last one used
type AllocateASNRequest struct {
	Owner               string `json:"owner" validate:"required,max=100"`
	Location            string `json:"location" validate:"required,max=100"`
	Case                string `json:"case" validate:"omitempty,max=100"`
	SKU                 string `json:"sku" validate:"required,max=100"`
	UOM                 string `json:"uom" validate:"required,max=20"`
	Quantity            int    `json:"quantity" validate:"gte=0"`
	RecordCount         int    `json:"record_count" validate:"gte=0,lte=10000"`
	Status              *int   `json:"status,omitempty" validate:"omitempty,oneof=0 1 2"`
	IsExportReservation bool   `json:"is_export_reservation"`
}

// PlacedRecordDTO represents one allocated ASN line
type PlacedRecordDTO struct {
	ID              uint   `json:"id"`
	UUID            string `json:"uuid"`
	Owner           string `json:"owner"`
	Location        string `json:"location"`
	Case            string `json:"case"`
	SKU             string `json:"sku"`
	UOM             string `json:"uom"`
	Quantity        int    `json:"quantity"`
	ASNNumber       string `json:"asn_number"`
	LineNumber      string `json:"line_number"`
	Status          int    `json:"status"`
	DownloadStatus  string `json:"download_status"`
	UpdatedUsername string `json:"updated_username,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// AllocateASNResponse describes the outcome of one allocation
type AllocateASNResponse struct {
	Message      string            `json:"message"`
	Records      []PlacedRecordDTO `json:"records"`
	Buckets      []string          `json:"buckets"`
	CursorBefore string            `json:"cursor_before"`
	CursorAfter  string            `json:"cursor_after"`
}

// GenerateASNRequest triggers ASN generation for every new captured record
type GenerateASNRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
	Export         bool   `json:"export" query:"export"`
}

// GenerateASNResponse describes a completed generation batch
type GenerateASNResponse struct {
	Message        string            `json:"message"`
	ProcessedCount int               `json:"processed_count"`
	Records        []PlacedRecordDTO `json:"records"`
	Buckets        []string          `json:"buckets"`
	CursorAfter    string            `json:"cursor_after"`
}

// ASNCursorStatusDTO is the read-only view of the numbering cursor
type ASNCursorStatusDTO struct {
	Type            string `json:"type"`
	Prefix          string `json:"prefix"`
	StartingNumber  string `json:"starting_number"`
	EndingNumber    string `json:"ending_number"`
	CurrentNumber   string `json:"current_number"`
	NextNumber      string `json:"next_number"`
	NumberOfLines   int    `json:"number_of_lines"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	CreatedUsername string `json:"created_username,omitempty"`
	UpdatedUsername string `json:"updated_username,omitempty"`
}

// ListPlacedRecordsRequest filters allocated lines
type ListPlacedRecordsRequest struct {
	Owner          string `query:"owner" validate:"omitempty,max=100"`
	ASNNumber      string `query:"asn_number" validate:"omitempty,max=20"`
	DownloadStatus string `query:"download_status" validate:"omitempty,oneof=yes no"`
	Page           int    `query:"page" validate:"omitempty,gte=1"`
	PageSize       int    `query:"page_size" validate:"omitempty,gte=1,lte=500"`
}

// ListPlacedRecordsResponse wraps a list of allocated lines
type ListPlacedRecordsResponse struct {
	Items    []PlacedRecordDTO `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"page_size,omitempty"`
}
