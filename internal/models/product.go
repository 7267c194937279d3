package models

// ProductKind is the explicit product type of a catalog record
type ProductKind string

const (
	KindBook   ProductKind = "BOOK"
	KindCourse ProductKind = "COURSE"
	KindExam   ProductKind = "EXAM"
)

// Product represents a catalog record (book, course or exam)
type Product struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	CoverURL  string      `json:"coverUrl,omitempty"`
	Kind      ProductKind `json:"kind"`
	IsDigital *bool       `json:"isDigital,omitempty"`
}
