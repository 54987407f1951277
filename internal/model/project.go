package model

import "time"

const (
	ProjectStatusOpen   = "open"
	ProjectStatusFunded = "funded"
	ProjectStatusSoon   = "coming_soon"
	ProjectStatusExited = "exited"
)

// Project is a real-estate opportunity listed on the public catalog.
type Project struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary,omitempty"`
	Location       string    `json:"location"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	Image          string    `json:"image,omitempty"`
	TargetAmount   int64     `json:"targetAmount"`
	RaisedAmount   int64     `json:"raisedAmount"`
	MinInvestment  int64     `json:"minInvestment"`
	ExpectedReturn float64   `json:"expectedReturn"`
	TermMonths     int       `json:"termMonths"`
	FundedPercent  int       `json:"fundedPercent"`
	Date           time.Time `json:"date"`
	HTMLContent    string    `json:"htmlContent,omitempty"`
}

// Funded is the share of the target already raised, capped at 100.
func (p *Project) Funded() int {
	if p.TargetAmount <= 0 {
		return 0
	}
	pct := int(p.RaisedAmount * 100 / p.TargetAmount)
	if pct > 100 {
		return 100
	}
	return pct
}
