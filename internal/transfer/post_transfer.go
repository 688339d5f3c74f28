package transfer

import "time"

type PostCreation struct {
	Content       string          `json:"content"`
	Platforms     map[string]bool `json:"platforms"`
	MediaFiles    []MediaFileInfo `json:"media_files"`
	ScheduledTime time.Time       `json:"scheduled_time"`
	// Draft keeps the post out of dispatch until it is rescheduled.
	Draft bool `json:"draft"`
}

type MediaFileInfo struct {
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type RetryRequest struct {
	// ScheduledTime is optional. Zero means retry now.
	ScheduledTime time.Time `json:"scheduled_time"`
}
