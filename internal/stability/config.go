// Package stability maps a governance configuration to a normalised
// stability index and the impact percentages shown beside it.
// Every function is pure.
package stability

import (
	"fmt"

	"sgc-analytics/internal/validate"
)

// Granularity of the information signal.
type Granularity string

const (
	GranularityFine   Granularity = "fine"
	GranularityMedium Granularity = "medium"
	GranularityCoarse Granularity = "coarse"
)

// UpdateRate of the policy loop.
type UpdateRate string

const (
	UpdateReactive UpdateRate = "reactive"
	UpdateSmoothed UpdateRate = "smoothed"
	UpdateStatic   UpdateRate = "static"
)

// RegulatoryMode of the compliance layer.
type RegulatoryMode string

const (
	RegulatoryStrict   RegulatoryMode = "strict"
	RegulatoryBalanced RegulatoryMode = "balanced"
	RegulatoryFlexible RegulatoryMode = "flexible"
)

// GovernanceConfig is the parameter vector the aggregator scores.
// Numeric parameters are percentages in [0, 100].
type GovernanceConfig struct {
	// information layer
	Sharpness           float64     `json:"sharpness" yaml:"sharpness" default:"80" validate:"gte=0,lte=100"`
	Noise               float64     `json:"noise" yaml:"noise" default:"10" validate:"gte=0,lte=100"`
	SignalDecay         float64     `json:"signalDecay" yaml:"signalDecay" default:"50" validate:"gte=0,lte=100"`
	ConfidenceThreshold float64     `json:"confidenceThreshold" yaml:"confidenceThreshold" default:"50" validate:"gte=0,lte=100"`
	Granularity         Granularity `json:"granularity" yaml:"granularity" default:"medium" validate:"oneof=fine medium coarse"`

	// incentive layer
	IncentiveGradient   float64 `json:"incentiveGradient" yaml:"incentiveGradient" default:"65" validate:"gte=0,lte=100"`
	RecoveryBonus       float64 `json:"recoveryBonus" yaml:"recoveryBonus" default:"50" validate:"gte=0,lte=100"`
	PenaltySeverity     float64 `json:"penaltySeverity" yaml:"penaltySeverity" default:"50" validate:"gte=0,lte=100"`
	EscalationThreshold float64 `json:"escalationThreshold" yaml:"escalationThreshold" default:"50" validate:"gte=0,lte=100"`

	// policy layer
	SLAStrictness  float64    `json:"slaStrictness" yaml:"slaStrictness" default:"70" validate:"gte=0,lte=100"`
	UpdateRate     UpdateRate `json:"updateRate" yaml:"updateRate" default:"smoothed" validate:"oneof=reactive smoothed static"`
	AuditFrequency float64    `json:"auditFrequency" yaml:"auditFrequency" default:"50" validate:"gte=0,lte=100"`
	RiskTolerance  float64    `json:"riskTolerance" yaml:"riskTolerance" default:"50" validate:"gte=0,lte=100"`

	// capacity layer
	BatchSize      float64 `json:"batchSize" yaml:"batchSize" default:"50" validate:"gte=0,lte=100"`
	ThreadPoolSize float64 `json:"threadPoolSize" yaml:"threadPoolSize" default:"50" validate:"gte=0,lte=100"`
	QueueDepth     float64 `json:"queueDepth" yaml:"queueDepth" default:"50" validate:"gte=0,lte=100"`

	// compliance layer
	RegulatoryMode   RegulatoryMode `json:"regulatoryMode" yaml:"regulatoryMode" default:"balanced" validate:"oneof=strict balanced flexible"`
	AuditTrailDepth  float64        `json:"auditTrailDepth" yaml:"auditTrailDepth" default:"50" validate:"gte=0,lte=100"`
	AlertSensitivity float64        `json:"alertSensitivity" yaml:"alertSensitivity" default:"50" validate:"gte=0,lte=100"`
}

// DefaultConfig returns the configuration a new session starts with.
func DefaultConfig() GovernanceConfig {
	var c GovernanceConfig
	if err := validate.Defaults(&c); err != nil {
		panic(fmt.Sprintf("stability: default config: %v", err))
	}
	return c
}

// Validate checks ranges and enum values.
func (c GovernanceConfig) Validate() error {
	return validate.Struct(c)
}
