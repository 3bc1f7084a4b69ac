package models

import (
	"time"
)

// BlogExport records a PDF export of a memory. The rendering itself is done
// by an external service; this row links the produced document back to its
// source memory.
type BlogExport struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MemoryID  uint      `json:"memory_id" gorm:"index"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Format    string    `json:"format" gorm:"default:pdf"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the original collection name.
func (BlogExport) TableName() string {
	return "blog_exports"
}
