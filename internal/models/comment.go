package models

// Comment is one harvested comment. Every field except the toxicity pair is
// set by the harvester; ToxicityLabel and ToxicityScore are written only by
// the scorer and stay nil until then.
type Comment struct {
	ID            uint     `gorm:"primaryKey" json:"-"`
	VideoID       string   `gorm:"uniqueIndex:idx_video_comment;size:64" json:"video_id"`
	CommentID     string   `gorm:"uniqueIndex:idx_video_comment;size:128" json:"comment_id"`
	ParentID      string   `gorm:"index;size:128" json:"parent_id"`
	ThreadID      string   `gorm:"index;size:128" json:"thread_id"`
	IsReply       bool     `json:"is_reply"`
	Author        string   `json:"author"`
	PublishedAt   string   `json:"published_at"`
	UpdatedAt     string   `json:"updated_at"`
	LikeCount     int64    `json:"like_count"`
	Text          string   `gorm:"type:text" json:"text"`
	ToxicityLabel *int     `json:"toxicity_label"`
	ToxicityScore *float64 `json:"toxicity_score"`
}

// Scored reports whether the scorer has labelled the comment.
func (c *Comment) Scored() bool {
	return c.ToxicityLabel != nil
}
