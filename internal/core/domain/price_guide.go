package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceGuide is a named, pre-set shipping price tier.
type PriceGuide struct {
	ID          string          `json:"id"`
	GuideNumber string          `json:"guideNumber"`
	GuideName   string          `json:"guideName"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Ref returns the snapshot stored on a shipment.
func (g *PriceGuide) Ref() PriceGuideRef {
	return PriceGuideRef{ID: g.ID, GuideNumber: g.GuideNumber, GuideName: g.GuideName, Price: g.Price}
}
