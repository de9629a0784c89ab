package transport

import "github.com/google/uuid"

// FunnelStage is one pipeline stage's share of the consolidated view.
type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// FunnelResponse is the pipeline funnel over merged clients.
type FunnelResponse struct {
	Stages           []FunnelStage `json:"stages"`
	TotalClients     int           `json:"totalClients"`
	ColdToWarmRate   float64       `json:"coldToWarmRate"`
	WarmToActiveRate float64       `json:"warmToActiveRate"`
}

// MonthRevenue is one calendar month's collected cash.
type MonthRevenue struct {
	Month       string `json:"month"`
	AmountCents int64  `json:"amountCents"`
}

// TopContributor is one merged identity ranked by lifetime revenue.
type TopContributor struct {
	ClientID             uuid.UUID `json:"clientId"`
	DisplayName          string    `json:"displayName"`
	LifetimeRevenueCents int64     `json:"lifetimeRevenueCents"`
}

// RevenueResponse is the revenue dashboard read model.
type RevenueResponse struct {
	Months          []MonthRevenue   `json:"months"`
	CurrentMRRCents int64            `json:"currentMrrCents"`
	TopContributors []TopContributor `json:"topContributors"`
}
