package models

// HarvestJob asks a worker to harvest and score one video. A nil Limit or an
// empty Order falls back to the worker's configuration; a negative Limit
// disables the cap.
type HarvestJob struct {
	VideoID string `json:"video_id"`
	Limit   *int   `json:"limit,omitempty"`
	Order   string `json:"order,omitempty"`
}
