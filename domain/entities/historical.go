package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoricalEntry is a backdated reading reported by a parent. It is kept
// apart from readings and does not count towards leaderboard or stats.
type HistoricalEntry struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Masjid         string             `json:"masjid" bson:"masjid"`
	ChildName      string             `json:"childName" bson:"childName"`
	Categories     []Category         `json:"categories" bson:"categories"`
	Description    string             `json:"description" bson:"description"`
	ParentEmail    string             `json:"parentEmail" bson:"parentEmail"`
	ReadingDate    time.Time          `json:"readingDate" bson:"readingDate"`
	SubmissionDate time.Time          `json:"submissionDate" bson:"submissionDate"`
}

// Validate checks the fields a stored historical entry must carry
func (h *HistoricalEntry) Validate() error {
	if h.Masjid == "" {
		return errors.New("masjid is required")
	}
	if h.ChildName == "" {
		return errors.New("child name is required")
	}
	if h.ParentEmail == "" {
		return errors.New("parent email is required")
	}
	if h.ReadingDate.IsZero() {
		return errors.New("reading date is required")
	}
	return validateCategories(h.Categories)
}
