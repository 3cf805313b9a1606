package models

import (
	"time"
)

// Video is a harvested video together with the statistics of its last run.
type Video struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	VideoID       string    `gorm:"uniqueIndex;size:64" json:"video_id"`
	Title         string    `json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	ChannelID     string    `json:"channel_id"`
	ChannelTitle  string    `json:"channel_title"`
	Order         string    `json:"order"`
	Records       int       `json:"records"`
	Pages         int       `json:"pages"`
	ReplyListings int       `json:"reply_listings"`
	Duplicates    int       `json:"duplicates"`
	Capped        bool      `json:"capped"`
	EmptyVectors  int       `json:"empty_vectors"`
	Toxic         int       `json:"toxic"`
	HarvestedAt   time.Time `json:"harvested_at"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}
