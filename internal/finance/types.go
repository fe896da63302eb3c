package finance

import (
	"time"
)

// PricePoint is one close price of the traditional stock.
type PricePoint struct {
	Time  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// ComparisonResult summarises one holding period for both models.
type ComparisonResult struct {
	TraditionalReturn           float64 `json:"traditionalReturn"`
	TraditionalReturnPercentage float64 `json:"traditionalReturnPercentage"`
	TokenizedReturn             float64 `json:"tokenizedReturn"`
	TokenizedReturnPercentage   float64 `json:"tokenizedReturnPercentage"`
	FeesClaimed                 float64 `json:"feesClaimed"`
	UserTVLFraction             float64 `json:"userTVLFraction"`
	TotalTokenizedValue         float64 `json:"totalTokenizedValue"`
}

// ChartPoint is the value of both holdings at one price sample.
type ChartPoint struct {
	Time             time.Time `json:"date"`
	TraditionalValue float64   `json:"traditionalValue"`
	TokenizedValue   float64   `json:"tokenizedValue"`
}

// Chart image cache entry
type chartCacheEntry struct {
	createdAt time.Time
	image     []byte
}

const chartCacheTTL = 60 * time.Second
