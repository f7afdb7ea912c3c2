package domain

import "time"

// WorkProof references an uploaded proof-of-work file. Storage itself lives
// behind the upload service, only the URL is kept here.
type WorkProof struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	FileURL    string    `json:"file_url"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
