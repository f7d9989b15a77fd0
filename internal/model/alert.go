package model

import "time"

// Operator is a comparison used by threshold alerts.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
)

// Valid reports whether op is a supported comparison.
func (op Operator) Valid() bool {
	switch op {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual:
		return true
	}
	return false
}

// Compare evaluates "a op b". Unknown operators never match.
func (op Operator) Compare(a, b float64) bool {
	switch op {
	case OpGreater:
		return a > b
	case OpLess:
		return a < b
	case OpGreaterEqual:
		return a >= b
	case OpLessEqual:
		return a <= b
	case OpEqual:
		return a == b
	}
	return false
}

// ThresholdAlert is a declarative predicate over one metric, evaluated per sample.
type ThresholdAlert struct {
	ID       string   `json:"id" yaml:"id"`
	Metric   Metric   `json:"metric" yaml:"metric" validate:"required,oneof=active recovered escalated"`
	Operator Operator `json:"operator" yaml:"operator" validate:"required,oneof=> < >= <= =="`
	Value    float64  `json:"value" yaml:"value"`
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// AnnotationType classifies an annotation marker.
type AnnotationType string

const (
	AnnotationNote  AnnotationType = "note"
	AnnotationEvent AnnotationType = "event"
	AnnotationAlert AnnotationType = "alert"
)

// Annotation is free-standing metadata keyed to a sample time.
type Annotation struct {
	ID          string         `json:"id" yaml:"id"`
	TimePoint   int64          `json:"timePoint" yaml:"timePoint"`
	Label       string         `json:"label" yaml:"label" validate:"required,max=120"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" validate:"max=1000"`
	Type        AnnotationType `json:"type" yaml:"type" validate:"required,oneof=note event alert"`
	Color       string         `json:"color,omitempty" yaml:"color,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"createdAt"`
}
