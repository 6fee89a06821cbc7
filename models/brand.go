package models

import "github.com/chorock-rock/proto-bizblah/store"

// Brand is a franchise brand in the directory. NameLower is unique among
// active brands and backs case-insensitive lookup and prefix search.
type Brand struct {
	ID         string `bson:"_id,omitempty" json:"id"`
	Name       string `bson:"name" json:"name"`
	NameLower  string `bson:"nameLower" json:"nameLower"`
	StoreCount int64  `bson:"storeCount" json:"storeCount"`
	IsActive   bool   `bson:"isActive" json:"isActive"`
	IsCustom   bool   `bson:"isCustom" json:"isCustom"`
	UsageCount int64  `bson:"usageCount" json:"usageCount"`
	CreatedAt  int64  `bson:"createdAt" json:"createdAt"`
}

// BrandFromDoc maps a stored document onto a Brand.
func BrandFromDoc(d store.Document) Brand {
	return Brand{
		ID:         d.ID,
		Name:       d.String("name"),
		NameLower:  d.String("nameLower"),
		StoreCount: d.Int64("storeCount"),
		IsActive:   d.Bool("isActive"),
		IsCustom:   d.Bool("isCustom"),
		UsageCount: d.Int64("usageCount"),
		CreatedAt:  d.Int64("createdAt"),
	}
}

// Doc returns the storable representation of the brand.
func (b Brand) Doc() map[string]any {
	return map[string]any{
		"name":       b.Name,
		"nameLower":  b.NameLower,
		"storeCount": b.StoreCount,
		"isActive":   b.IsActive,
		"isCustom":   b.IsCustom,
		"usageCount": b.UsageCount,
		"createdAt":  b.CreatedAt,
	}
}

// BrandReview is one owner's rating of their brand: five 0-5 scores plus a
// free-text comment. One review per user per brand.
type BrandReview struct {
	ID              string  `bson:"_id,omitempty" json:"id"`
	Brand           string  `bson:"brand" json:"brand"`
	AuthorID        string  `bson:"authorId" json:"authorId"`
	AuthorName      string  `bson:"authorName" json:"authorName"`
	Profitability   float64 `bson:"profitability" json:"profitability"`
	Support         float64 `bson:"support" json:"support"`
	Logistics       float64 `bson:"logistics" json:"logistics"`
	Competitiveness float64 `bson:"competitiveness" json:"competitiveness"`
	Communication   float64 `bson:"communication" json:"communication"`
	Comment         string  `bson:"comment" json:"comment"`
	CreatedAt       int64   `bson:"createdAt" json:"createdAt"`
}

// BrandReviewFromDoc maps a stored document onto a BrandReview.
func BrandReviewFromDoc(d store.Document) BrandReview {
	f := func(field string) float64 {
		switch v := d.Data[field].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
		return 0
	}
	return BrandReview{
		ID:              d.ID,
		Brand:           d.String("brand"),
		AuthorID:        d.String("authorId"),
		AuthorName:      d.String("authorName"),
		Profitability:   f("profitability"),
		Support:         f("support"),
		Logistics:       f("logistics"),
		Competitiveness: f("competitiveness"),
		Communication:   f("communication"),
		Comment:         d.String("comment"),
		CreatedAt:       d.Int64("createdAt"),
	}
}

// Doc returns the storable representation of the review.
func (r BrandReview) Doc() map[string]any {
	return map[string]any{
		"brand":           r.Brand,
		"authorId":        r.AuthorID,
		"authorName":      r.AuthorName,
		"profitability":   r.Profitability,
		"support":         r.Support,
		"logistics":       r.Logistics,
		"competitiveness": r.Competitiveness,
		"communication":   r.Communication,
		"comment":         r.Comment,
		"createdAt":       r.CreatedAt,
	}
}

// Average of the five score axes.
func (r BrandReview) Average() float64 {
	return (r.Profitability + r.Support + r.Logistics + r.Competitiveness + r.Communication) / 5
}
