package transport

import "time"

// ExportResponse describes an uploaded CSV snapshot.
type ExportResponse struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RowCount    int       `json:"rowCount"`
}
