package types

import "time"

// SampleEvent is the normalized utilization datapoint consumed from the
// telemetry samples topic. Ratios are observed usage over capacity and get
// clamped to [0, 1] before storage.
type SampleEvent struct {
	ClusterUUID string    `json:"cluster_uuid" validate:"required,uuid"`
	NodeUUID    string    `json:"node_uuid" validate:"required,uuid"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	CPURatio    float64   `json:"cpu_ratio" validate:"min=0"`
	MemoryRatio float64   `json:"memory_ratio" validate:"min=0"`
}

// CostEvent is one day of billed cost for a cluster, consumed from the
// telemetry costs topic.
type CostEvent struct {
	ClusterUUID string    `json:"cluster_uuid" validate:"required,uuid"`
	Date        time.Time `json:"date" validate:"required"`
	Cost        float64   `json:"cost" validate:"min=0"`
}

// AlertEvent is published on the alerts topic whenever the lifecycle
// manager creates a new alert.
type AlertEvent struct {
	AlertUUID   string    `json:"alert_uuid"`
	ClusterUUID string    `json:"cluster_uuid"`
	AlertType   AlertType `json:"alert_type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}
