package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a kind of recitation or memorization activity
type Category string

const (
	CategoryDua    Category = "Dua"
	CategoryHadith Category = "Hadith"
	CategoryQuran  Category = "Quran"
	CategoryHifdh  Category = "Hifdh"
)

// Categories lists every accepted category in display order
var Categories = []Category{CategoryDua, CategoryHadith, CategoryQuran, CategoryHifdh}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Reading is a single reading submission for a child at a masjid
type Reading struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Masjid         string             `json:"masjid" bson:"masjid"`
	ChildName      string             `json:"childName" bson:"childName"`
	Categories     []Category         `json:"categories" bson:"categories"`
	Description    string             `json:"description" bson:"description"`
	ImamVerified   bool               `json:"imamVerified" bson:"imamVerified"`
	BulkSubmission bool               `json:"bulkSubmission" bson:"bulkSubmission"`
	SubmissionDate time.Time          `json:"submissionDate" bson:"submissionDate"`
	IPAddress      string             `json:"-" bson:"ipAddress,omitempty"`
	UserAgent      string             `json:"-" bson:"userAgent,omitempty"`
}

// NewReading creates a reading with its own copy of categories. The caller
// sets SubmissionDate.
func NewReading(masjid, childName string, categories []Category) *Reading {
	c := make([]Category, len(categories))
	copy(c, categories)
	return &Reading{
		Masjid:     masjid,
		ChildName:  childName,
		Categories: c,
	}
}

// TotalReadings is the reading's contribution to every totalReadings metric
func (r *Reading) TotalReadings() int {
	return len(r.Categories)
}

// Validate checks the fields a stored reading must carry
func (r *Reading) Validate() error {
	if r.Masjid == "" {
		return errors.New("masjid is required")
	}
	if r.ChildName == "" {
		return errors.New("child name is required")
	}
	return validateCategories(r.Categories)
}

func validateCategories(categories []Category) error {
	if len(categories) == 0 {
		return errors.New("at least one category is required")
	}
	for _, c := range categories {
		if !c.Valid() {
			return errors.New("unknown category " + string(c))
		}
	}
	return nil
}
