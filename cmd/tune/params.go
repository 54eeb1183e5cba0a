// Package main provides CMA-ES optimization of evolution hyperparameters.
package main

import (
	"github.com/evolab/petri/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters:
// the mutation rates and the motor model.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "add_synapse", Path: "mutation.add_synapse", Min: 0.0, Max: 0.3, Default: 0.05},
			{Name: "add_neuron", Path: "mutation.add_neuron", Min: 0.0, Max: 0.15, Default: 0.02},
			{Name: "weight", Path: "mutation.weight", Min: 0.01, Max: 0.4, Default: 0.08},
			{Name: "bias", Path: "mutation.bias", Min: 0.0, Max: 0.3, Default: 0.04},
			{Name: "threshold", Path: "mutation.threshold", Min: 0.0, Max: 0.3, Default: 0.04},
			{Name: "motor_strength", Path: "motor.strength", Min: 5.0, Max: 100.0, Default: 30.0},
			{Name: "motor_friction", Path: "motor.friction", Min: 0.05, Max: 0.6, Default: 0.25},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Mutation.AddSynapse = clamped[0]
	cfg.Mutation.AddNeuron = clamped[1]
	cfg.Mutation.Weight = clamped[2]
	cfg.Mutation.Bias = clamped[3]
	cfg.Mutation.Threshold = clamped[4]
	cfg.Motor.Strength = clamped[5]
	cfg.Motor.Friction = clamped[6]
}
