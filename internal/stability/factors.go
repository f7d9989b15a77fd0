package stability

// Factor is one named multiplicative impact factor.
type Factor struct {
	Param Param   `json:"param"`
	Value float64 `json:"value"`
}

// RecoveryFactors are the multipliers on recovery throughput.
// Each lies in [0.5, 1.6] for in-range input.
func RecoveryFactors(cfg GovernanceConfig) []Factor {
	confidence := 0.8
	if cfg.ConfidenceThreshold > 50 {
		confidence = 1.2
	}
	granularity := map[Granularity]float64{
		GranularityFine: 1.3, GranularityMedium: 1.0, GranularityCoarse: 0.7,
	}[cfg.Granularity]
	if granularity == 0 {
		granularity = 1
	}
	update := map[UpdateRate]float64{
		UpdateReactive: 1.5, UpdateSmoothed: 1.0, UpdateStatic: 0.6,
	}[cfg.UpdateRate]
	if update == 0 {
		update = 1
	}

	return []Factor{
		{ParamIncentiveGradient, 1 + pct(cfg.IncentiveGradient)*0.6},
		{ParamRecoveryBonus, 1 + pct(cfg.RecoveryBonus)*0.5},
		{ParamConfidenceThreshold, confidence},
		{ParamGranularity, granularity},
		{ParamThreadPoolSize, 0.6 + pct(cfg.ThreadPoolSize)*0.8},
		{ParamBatchSize, 0.7 + pct(cfg.BatchSize)*0.6},
		{ParamUpdateRate, update},
		{ParamSignalDecay, 1 - pct(cfg.SignalDecay)*0.3},
	}
}

// EscalationFactors are the multipliers on escalation volume; values
// below 1 reduce escalations.
func EscalationFactors(cfg GovernanceConfig) []Factor {
	regulatory := map[RegulatoryMode]float64{
		RegulatoryStrict: 0.8, RegulatoryBalanced: 1.0, RegulatoryFlexible: 1.3,
	}[cfg.RegulatoryMode]
	if regulatory == 0 {
		regulatory = 1
	}

	return []Factor{
		{ParamPenaltySeverity, 1 + pct(cfg.PenaltySeverity)*0.4},
		{ParamEscalationThreshold, 1 - pct(cfg.EscalationThreshold)*0.5},
		{ParamSLAStrictness, 1 - pct(cfg.SLAStrictness)*0.4},
		{ParamAuditFrequency, 1 - pct(cfg.AuditFrequency)*0.2},
		{ParamRegulatoryMode, regulatory},
		{ParamAuditTrailDepth, 1 - pct(cfg.AuditTrailDepth)*0.15},
		{ParamAlertSensitivity, 1 - pct(cfg.AlertSensitivity)*0.25},
		{ParamQueueDepth, 0.7 + pct(cfg.QueueDepth)*0.5},
		{ParamRiskTolerance, 1 + pct(cfg.RiskTolerance)*0.3},
	}
}

// Check is one named safety condition.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// SafetyChecks evaluates the conditions under which the regime can
// destabilise.
func SafetyChecks(cfg GovernanceConfig) []Check {
	return []Check{
		{
			Name:   "information",
			Passed: cfg.Sharpness < 80 && cfg.Granularity != GranularityFine,
			Detail: "signal sharpness below 80 with non-fine granularity",
		},
		{
			Name:   "incentives",
			Passed: cfg.IncentiveGradient < 70,
			Detail: "incentive gradient below 70",
		},
		{
			Name:   "policyRate",
			Passed: cfg.UpdateRate != UpdateReactive,
			Detail: "policy updates are not reactive",
		},
	}
}

func product(fs []Factor) float64 {
	p := 1.0
	for _, f := range fs {
		p *= f.Value
	}
	return p
}

// pct maps a [0, 100] parameter to [0, 1], clamping out-of-range input.
func pct(v float64) float64 {
	return clamp(v, 0, 100) / 100
}
