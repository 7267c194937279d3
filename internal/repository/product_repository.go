package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/lexacademy/checkout/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	products map[string]models.Product
}

func boolPtr(b bool) *bool { return &b }

// NewInMemoryProductRepository creates a new in-memory product repository with seed data
func NewInMemoryProductRepository() *InMemoryProductRepository {
	// Seed data mirrors the storefront demo catalog; only some records carry
	// an explicit digital flag.
	products := map[string]models.Product{
		"b-101": {ID: "b-101", Title: "หนังสือกฎหมายอาญา ภาคทั่วไป", Price: 350, Kind: models.KindBook, CoverURL: "/covers/b-101.jpg"},
		"b-102": {ID: "b-102", Title: "รวมข้อสอบเนติบัณฑิต สมัยที่ 75", Price: 420, Kind: models.KindBook, CoverURL: "/covers/b-102.jpg"},
		"b-103": {ID: "b-103", Title: "ประมวลกฎหมายแพ่งและพาณิชย์ ฉบับพกพา", Price: 290, Kind: models.KindBook, IsDigital: boolPtr(false)},
		"b-104": {ID: "b-104", Title: "สรุปกฎหมายวิธีพิจารณาความแพ่ง E-Book", Price: 199, Kind: models.KindBook},
		"b-105": {ID: "b-105", Title: "กฎหมายมหาชน ฉบับดิจิทัล", Price: 250, Kind: models.KindBook, IsDigital: boolPtr(true)},
		"c-201": {ID: "c-201", Title: "คอร์สกฎหมายแพ่ง", Price: 1500, Kind: models.KindCourse},
		"c-202": {ID: "c-202", Title: "ติว Course อาญาเข้ม", Price: 2900, Kind: models.KindCourse},
		"e-301": {ID: "e-301", Title: "ข้อสอบจำลองผู้ช่วยผู้พิพากษา", Price: 490, Kind: models.KindExam},
		"e-302": {ID: "e-302", Title: "แบบทดสอบอัยการผู้ช่วย", Price: 390, Kind: models.KindExam},
	}

	return &InMemoryProductRepository{
		products: products,
	}
}

// GetAll returns all products ordered by ID
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}
