// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/inventory-asn/app/dto"
	"github.com/amirphl/inventory-asn/models"
	"github.com/amirphl/inventory-asn/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit stamping and logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	Username   string            `json:"username"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetUsername sets the acting username
func (cm *ClientMetadata) SetUsername(username string) {
	cm.Username = username
}

// actor returns the username stamped on audit fields
func (cm *ClientMetadata) actor() string {
	if cm == nil || cm.Username == "" {
		return utils.DefaultUsername
	}
	return cm.Username
}

// ToPlacedRecordDTO converts a placed record model to its response shape
func ToPlacedRecordDTO(record models.DownloadInventory) dto.PlacedRecordDTO {
	updatedBy := ""
	if record.UpdatedUsername != nil {
		updatedBy = *record.UpdatedUsername
	}
	return dto.PlacedRecordDTO{
		ID:              record.ID,
		UUID:            record.UUID.String(),
		Owner:           record.Owner,
		Location:        record.Location,
		Case:            record.CaseNumber,
		SKU:             record.SKU,
		UOM:             record.UOM,
		Quantity:        record.Quantity,
		ASNNumber:       record.ASNNumber,
		LineNumber:      record.LineNumber,
		Status:          record.Status,
		DownloadStatus:  record.DownloadStatus,
		UpdatedUsername: updatedBy,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339),
	}
}

func toPlacedRecordDTOs(records []*models.DownloadInventory) []dto.PlacedRecordDTO {
	out := make([]dto.PlacedRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ToPlacedRecordDTO(*r))
	}
	return out
}

// ToInventoryCaptureDTO converts a source record model to its response shape
func ToInventoryCaptureDTO(capture models.InventoryCapture) dto.InventoryCaptureDTO {
	return dto.InventoryCaptureDTO{
		ID:        capture.ID,
		UUID:      capture.UUID.String(),
		Owner:     capture.Owner,
		Location:  capture.Location,
		Case:      capture.CaseNumber,
		SKU:       capture.SKU,
		UOM:       capture.UOM,
		Quantity:  capture.Quantity,
		Username:  capture.Username,
		Status:    capture.Status,
		CreatedAt: capture.CreatedAt.Format(time.RFC3339),
	}
}

// ToASNCursorStatusDTO converts the cursor row to its read-only view
func ToASNCursorStatusDTO(cursor models.ASNCursor) dto.ASNCursorStatusDTO {
	out := dto.ASNCursorStatusDTO{
		Type:           cursor.Type,
		Prefix:         cursor.Prefix,
		StartingNumber: cursor.StartingNumber,
		EndingNumber:   cursor.EndingNumber,
		CurrentNumber:  cursor.CurrentNumber,
		NextNumber:     cursor.NextNumber,
		NumberOfLines:  cursor.NumberOfLines,
		CreatedAt:      cursor.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      cursor.UpdatedAt.Format(time.RFC3339),
	}
	if cursor.CreatedUsername != nil {
		out.CreatedUsername = *cursor.CreatedUsername
	}
	if cursor.UpdatedUsername != nil {
		out.UpdatedUsername = *cursor.UpdatedUsername
	}
	return out
}
