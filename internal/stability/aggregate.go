package stability

import "math"

// Param names one governance parameter.
type Param string

const (
	ParamSharpness           Param = "sharpness"
	ParamNoise               Param = "noise"
	ParamSignalDecay         Param = "signalDecay"
	ParamConfidenceThreshold Param = "confidenceThreshold"
	ParamGranularity         Param = "granularity"
	ParamIncentiveGradient   Param = "incentiveGradient"
	ParamRecoveryBonus       Param = "recoveryBonus"
	ParamPenaltySeverity     Param = "penaltySeverity"
	ParamEscalationThreshold Param = "escalationThreshold"
	ParamSLAStrictness       Param = "slaStrictness"
	ParamUpdateRate          Param = "updateRate"
	ParamAuditFrequency      Param = "auditFrequency"
	ParamRiskTolerance       Param = "riskTolerance"
	ParamBatchSize           Param = "batchSize"
	ParamThreadPoolSize      Param = "threadPoolSize"
	ParamQueueDepth          Param = "queueDepth"
	ParamRegulatoryMode      Param = "regulatoryMode"
	ParamAuditTrailDepth     Param = "auditTrailDepth"
	ParamAlertSensitivity    Param = "alertSensitivity"
)

// Params lists every parameter in display order.
var Params = []Param{
	ParamSharpness, ParamNoise, ParamSignalDecay, ParamConfidenceThreshold, ParamGranularity,
	ParamIncentiveGradient, ParamRecoveryBonus, ParamPenaltySeverity, ParamEscalationThreshold,
	ParamSLAStrictness, ParamUpdateRate, ParamAuditFrequency, ParamRiskTolerance,
	ParamBatchSize, ParamThreadPoolSize, ParamQueueDepth,
	ParamRegulatoryMode, ParamAuditTrailDepth, ParamAlertSensitivity,
}

// Weights are the fixed sub-score weights. They sum to 1.
var Weights = map[Param]float64{
	ParamSharpness:           0.08,
	ParamNoise:               0.05,
	ParamSignalDecay:         0.04,
	ParamConfidenceThreshold: 0.05,
	ParamGranularity:         0.06,
	ParamIncentiveGradient:   0.07,
	ParamRecoveryBonus:       0.05,
	ParamPenaltySeverity:     0.05,
	ParamEscalationThreshold: 0.06,
	ParamSLAStrictness:       0.07,
	ParamUpdateRate:          0.06,
	ParamAuditFrequency:      0.04,
	ParamRiskTolerance:       0.05,
	ParamBatchSize:           0.03,
	ParamThreadPoolSize:      0.04,
	ParamQueueDepth:          0.04,
	ParamRegulatoryMode:      0.06,
	ParamAuditTrailDepth:     0.04,
	ParamAlertSensitivity:    0.06,
}

// Convergence regimes, from most to least stable.
const (
	Contractive    = "contractive"
	NonExpansive   = "non-expansive"
	Unstable       = "unstable"
	NoStableRegime = "no-regime"
)

// Result is the aggregator output.
type Result struct {
	Index                  float64 `json:"index"`
	RecoveryBoostPct       int     `json:"recoveryBoostPct"`
	EscalationReductionPct int     `json:"escalationReductionPct"`
	SystemEfficiencyPct    int     `json:"systemEfficiencyPct"`
	Convergence            string  `json:"convergence"`
}

// Aggregate scores cfg. Out-of-range inputs are clamped, never rejected.
func Aggregate(cfg GovernanceConfig) Result {
	idx := Index(cfg)
	rec := product(RecoveryFactors(cfg))
	esc := product(EscalationFactors(cfg))

	r := Result{
		Index:                  idx,
		RecoveryBoostPct:       int(math.Round((rec - 1) * 100)),
		EscalationReductionPct: int(math.Round((1 - esc) * 100)),
		Convergence:            ConvergenceStatus(idx),
	}
	if sum := rec + esc; sum > 0 {
		r.SystemEfficiencyPct = int(math.Round(rec / sum * 100))
	}
	return r
}

// Index is the weighted sum of sub-scores scaled to [0, 1].
func Index(cfg GovernanceConfig) float64 {
	scores := SubScores(cfg)
	sum := 0.0
	for _, p := range Params {
		sum += Weights[p] * scores[p]
	}
	return clamp(sum/100, 0, 1)
}

// SubScores returns each parameter's score in [0, 100].
func SubScores(cfg GovernanceConfig) map[Param]float64 {
	raw := map[Param]float64{
		ParamSharpness:           cfg.Sharpness,
		ParamNoise:               100 - cfg.Noise,
		ParamSignalDecay:         centred(cfg.SignalDecay),
		ParamConfidenceThreshold: cfg.ConfidenceThreshold,
		ParamGranularity:         granularityScore[cfg.Granularity],
		ParamIncentiveGradient:   cfg.IncentiveGradient,
		ParamRecoveryBonus:       centred(cfg.RecoveryBonus),
		ParamPenaltySeverity:     centred(cfg.PenaltySeverity),
		ParamEscalationThreshold: cfg.EscalationThreshold,
		ParamSLAStrictness:       cfg.SLAStrictness,
		ParamUpdateRate:          updateRateScore[cfg.UpdateRate],
		ParamAuditFrequency:      cfg.AuditFrequency,
		ParamRiskTolerance:       100 - cfg.RiskTolerance,
		ParamBatchSize:           centred(cfg.BatchSize),
		ParamThreadPoolSize:      cfg.ThreadPoolSize,
		ParamQueueDepth:          centred(cfg.QueueDepth),
		ParamRegulatoryMode:      regulatoryScore[cfg.RegulatoryMode],
		ParamAuditTrailDepth:     cfg.AuditTrailDepth,
		ParamAlertSensitivity:    centred(cfg.AlertSensitivity),
	}
	for p, v := range raw {
		raw[p] = clamp(v, 0, 100)
	}
	return raw
}

var (
	granularityScore = map[Granularity]float64{
		GranularityFine: 90, GranularityMedium: 60, GranularityCoarse: 30,
	}
	updateRateScore = map[UpdateRate]float64{
		UpdateSmoothed: 90, UpdateStatic: 60, UpdateReactive: 30,
	}
	regulatoryScore = map[RegulatoryMode]float64{
		RegulatoryStrict: 90, RegulatoryBalanced: 70, RegulatoryFlexible: 40,
	}
)

// ConvergenceStatus classifies an index into a stability regime.
func ConvergenceStatus(index float64) string {
	switch {
	case index >= 0.7:
		return Contractive
	case index >= 0.5:
		return NonExpansive
	case index >= 0.3:
		return Unstable
	default:
		return NoStableRegime
	}
}

// centred scores a parameter best at 50 and worst at either extreme.
func centred(v float64) float64 {
	return 100 - 2*math.Abs(v-50)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
