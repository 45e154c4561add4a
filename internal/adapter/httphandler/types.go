package httphandler

import "github.com/niksmo/eco-catalog/internal/core/domain"

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Material    string `json:"material"`
	Price       int    `json:"price"`
	ImpactScore int    `json:"impact_score"`
	IsNew       bool   `json:"is_new"`
	IsLimited   bool   `json:"is_limited"`
}

func productToDomain(p Product) domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Material:    p.Material,
		Price:       p.Price,
		ImpactScore: p.ImpactScore,
		IsNew:       p.IsNew,
		IsLimited:   p.IsLimited,
	}
}

func productFromDomain(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Material:    p.Material,
		Price:       p.Price,
		ImpactScore: p.ImpactScore,
		IsNew:       p.IsNew,
		IsLimited:   p.IsLimited,
	}
}

// A queryParams is decoded from the query string.
//
// A nil MaxPrice means the configured default ceiling.
type queryParams struct {
	Material []string `schema:"material"`
	Impact   []int    `schema:"impact"`
	MaxPrice *int     `schema:"max_price"`
	Sort     string   `schema:"sort"`
	Page     int      `schema:"page"`
	Size     int      `schema:"size"`
}

type ProductsResponse struct {
	Items   []Product `json:"items"`
	Visible int       `json:"visible"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	Pages   int       `json:"pages"`
	Label   string    `json:"label"`
}

type CountResponse struct {
	Visible int    `json:"visible"`
	Total   int    `json:"total"`
	Label   string `json:"label"`
}

type SortStat struct {
	Sort  string `json:"sort"`
	Count int64  `json:"count"`
}
