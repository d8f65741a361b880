package domain

import "fmt"

// Study groups the products of one clinical study
type Study struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"nome"`
}

// Product belongs to exactly one study
type Product struct {
	ID          int64  `json:"id" db:"id"`
	StudyID     int64  `json:"study_id" db:"estudo_id"`
	Name        string `json:"name" db:"nome"`
	ProductType string `json:"product_type" db:"tipo_produto"`
}

// ProductListing is a product joined with its study name
type ProductListing struct {
	Product
	StudyName string `json:"study_name" db:"estudo_nome"`
}

// LookupKind identifies one of the auxiliary reference lists
type LookupKind int

const (
	LookupLocation LookupKind = iota + 1
	LookupActionType
	LookupProductType
)

// LookupKinds lists every kind in display order
var LookupKinds = []LookupKind{LookupLocation, LookupActionType, LookupProductType}

// Table returns the table holding the kind's values
func (k LookupKind) Table() string {
	switch k {
	case LookupLocation:
		return "localizacao"
	case LookupActionType:
		return "tipo_acao"
	case LookupProductType:
		return "tipo_produto"
	default:
		panic(fmt.Sprintf("unknown lookup kind %d", int(k)))
	}
}

// Slug is the URL form of the kind
func (k LookupKind) Slug() string {
	switch k {
	case LookupLocation:
		return "locations"
	case LookupActionType:
		return "action-types"
	case LookupProductType:
		return "product-types"
	default:
		return ""
	}
}

// LabelKey is the i18n key of the kind's display label
func (k LookupKind) LabelKey() string {
	return "lookups." + k.Slug()
}

func (k LookupKind) String() string {
	return k.Slug()
}

// Valid reports whether k is one of the declared kinds
func (k LookupKind) Valid() bool {
	return k >= LookupLocation && k <= LookupProductType
}

// ParseLookupKind resolves a URL slug
func ParseLookupKind(slug string) (LookupKind, bool) {
	for _, k := range LookupKinds {
		if k.Slug() == slug {
			return k, true
		}
	}
	return 0, false
}

// LookupValue is one entry of a reference list
type LookupValue struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"nome"`
}
