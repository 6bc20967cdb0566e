package types

import "database/sql/driver"

type CloudProvider string

const (
	AWS   CloudProvider = "aws"
	GCP   CloudProvider = "gcp"
	Azure CloudProvider = "azure"
	Other CloudProvider = "other"
)

func (p *CloudProvider) Scan(value interface{}) error {
	*p = CloudProvider(value.(string))
	return nil
}

func (p CloudProvider) Value() (driver.Value, error) {
	return string(p), nil
}

func (p CloudProvider) String() string {
	switch p {
	case AWS, GCP, Azure:
		return string(p)
	}
	return "other"
}

// Classification is the waste pattern tag assigned to a node for one
// analysis window.
type Classification string

const (
	Idle            Classification = "idle"
	OverProvisioned Classification = "over_provisioned"
	Fragmented      Classification = "fragmented"
	Healthy         Classification = "healthy"
)

func (c *Classification) Scan(value interface{}) error {
	*c = Classification(value.(string))
	return nil
}

func (c Classification) Value() (driver.Value, error) {
	return string(c), nil
}

func (c Classification) String() string {
	return string(c)
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Rank orders priorities so that High sorts before Medium before Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s *Severity) Scan(value interface{}) error {
	*s = Severity(value.(string))
	return nil
}

func (s Severity) Value() (driver.Value, error) {
	return string(s), nil
}

type AlertType string

const (
	AlertCostSpike        AlertType = "cost_spike"
	AlertIdleResource     AlertType = "idle_resource"
	AlertBudgetThreshold  AlertType = "budget_threshold"
	AlertRightsizingDrift AlertType = "rightsizing_drift"
)

func (a *AlertType) Scan(value interface{}) error {
	*a = AlertType(value.(string))
	return nil
}

func (a AlertType) Value() (driver.Value, error) {
	return string(a), nil
}

type RecommendationType string

const (
	RecommendationTerminate   RecommendationType = "terminate"
	RecommendationDownsize    RecommendationType = "downsize"
	RecommendationConsolidate RecommendationType = "consolidate"
	RecommendationRightsize   RecommendationType = "rightsize_cluster"
)
