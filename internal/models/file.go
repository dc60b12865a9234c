package models

import "time"

// File categories form a fixed, closed set. "All" is a filter value used by
// list queries and is never stored on a record.
const (
	CategoryAll       = "All"
	CategoryOther     = "Other"
	CategorySales     = "Sales Report"
	CategoryCustomer  = "Customer Data"
	CategoryFinancial = "Financial Document"
	CategoryProduct   = "Product Material"
)

// FileCategories lists every storable category.
var FileCategories = []string{
	CategorySales,
	CategoryCustomer,
	CategoryFinancial,
	CategoryProduct,
	CategoryOther,
}

// FileRecord is the metadata row kept alongside an uploaded blob. A row's
// existence implies the blob exists at StorageKey; writers must delete the
// blob again if the row insert fails.
type FileRecord struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"index;not null" json:"-"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Size       int64  `gorm:"not null" json:"size"`
	Type       string `gorm:"size:128" json:"type"`
	URL        string `gorm:"size:512" json:"url"`
	StorageKey string `gorm:"size:255;not null" json:"-"`
	Bucket     string `gorm:"size:64;not null" json:"-"`
	Category   string `gorm:"size:32;not null;default:Other" json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

// StorableCategory reports whether c may be written to a FileRecord.
func StorableCategory(c string) bool {
	for _, v := range FileCategories {
		if v == c {
			return true
		}
	}
	return false
}
