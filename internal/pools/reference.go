package pools

import "context"

// referenceTable is the built-in snapshot of the tokenized stock pools.
var referenceTable = []PoolMetrics{
	{Symbol: "SLVon", PoolTVL: 657460, Fees24h: 965.50, Volume24h: 96550, Fees30d: 32380, Volume30d: 3240000, APR: ptr(59.11)},
	{Symbol: "CRCLon", PoolTVL: 18580, Fees24h: 22.25, Volume24h: 2230, Fees30d: 753.22, Volume30d: 75320, APR: ptr(48.65)},
	{Symbol: "NVDAon", PoolTVL: 15720, Fees24h: 1.44, Volume24h: 143.80, Fees30d: 444.45, Volume30d: 44450, APR: ptr(33.93)},
	{Symbol: "SPYon", PoolTVL: 10960, Fees24h: 0.19, Volume24h: 18.59, Fees30d: 98.99, Volume30d: 9900, APR: ptr(10.84)},
	{Symbol: "TSLAon", PoolTVL: 8640, Fees24h: 15.72, Volume24h: 1570, Fees30d: 597.04, Volume30d: 59700, APR: ptr(82.90)},
	{Symbol: "QQQon", PoolTVL: 6000, Fees24h: 2.38, Volume24h: 238.45, Fees30d: 153.31, Volume30d: 15330, APR: ptr(30.65)},
	{Symbol: "GOOGLon", PoolTVL: 5000, Fees24h: 1.74, Volume24h: 173.95, Fees30d: 140.44, Volume30d: 14040, APR: ptr(33.68)},
	{Symbol: "BABAon", PoolTVL: 1910, Fees24h: 0.18, Volume24h: 18.24, Fees30d: 85.95, Volume30d: 8590, APR: ptr(54.13)},
	{Symbol: "TLTon", PoolTVL: 1230, Fees24h: 3.19, Volume24h: 318.50, Fees30d: 85.15, Volume30d: 8520, APR: ptr(83.13)},
	{Symbol: "AAPLon", PoolTVL: 688.94, Fees24h: 0.81, Volume24h: 81.49, Fees30d: 103.92, Volume30d: 10390, APR: ptr(181.01)},
	{Symbol: "COINon", PoolTVL: 571.11, Fees24h: 2.85, Volume24h: 285.11, Fees30d: 93.87, Volume30d: 9390, APR: ptr(197.23)},
	{Symbol: "HOODon", PoolTVL: 400, Fees24h: 0.5, Volume24h: 50, Fees30d: 15, Volume30d: 1500},
	{Symbol: "MSFTon", PoolTVL: 350, Fees24h: 0.3, Volume24h: 30, Fees30d: 9, Volume30d: 900},
	{Symbol: "MSTRon", PoolTVL: 280, Fees24h: 0.4, Volume24h: 40, Fees30d: 12, Volume30d: 1200},
	{Symbol: "NKEon", PoolTVL: 200, Fees24h: 0.2, Volume24h: 20, Fees30d: 6, Volume30d: 600},
	{Symbol: "SPGIon", PoolTVL: 150, Fees24h: 0.15, Volume24h: 15, Fees30d: 4.5, Volume30d: 450},
}

// Reference returns a copy of the built-in table.
func Reference() []PoolMetrics {
	return clone(referenceTable)
}

// ReferenceSource serves the built-in table. It never fails.
type ReferenceSource struct{}

func (ReferenceSource) Name() string { return "reference" }

func (ReferenceSource) FetchPools(context.Context) ([]PoolMetrics, error) {
	return Reference(), nil
}
