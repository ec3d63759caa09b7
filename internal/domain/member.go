package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryStaff   Category = "staff"
	CategoryDL      Category = "dl"
	CategorySkilled Category = "skilled"
)

// Categories lists every member category in display order.
var Categories = []Category{CategoryStaff, CategoryDL, CategorySkilled}

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryStaff, CategoryDL, CategorySkilled:
		return c, nil
	default:
		return "", fmt.Errorf("invalid category %q", s)
	}
}

func (c Category) Label() string {
	switch c {
	case CategoryStaff:
		return "Staff"
	case CategoryDL:
		return "DL"
	case CategorySkilled:
		return "Skilled"
	default:
		return string(c)
	}
}

type Member struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	SiteID    uuid.UUID `json:"siteId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
