package model

import (
	"errors"
	"fmt"
)

// ReasonCode is the stable, machine-readable cause attached to skipped pairs
type ReasonCode string

const (
	ReasonInsufficientHistory  ReasonCode = "insufficient_history"
	ReasonNumericalInstability ReasonCode = "numerical_instability"
	ReasonAllocation           ReasonCode = "allocation"
	ReasonUpstreamNotFound     ReasonCode = "upstream_not_found"
	ReasonUpstreamRateLimited  ReasonCode = "upstream_rate_limited"
	ReasonUpstreamTransient    ReasonCode = "upstream_transient"
	ReasonBelowCorrelation     ReasonCode = "below_correlation"
	ReasonUnstableCorrelation  ReasonCode = "unstable_correlation"
	ReasonInternal             ReasonCode = "internal"
)

// Reasoner is implemented by errors that carry their own reason code
type Reasoner interface {
	Reason() ReasonCode
}

// ReasonFor maps an error to its reason code
func ReasonFor(err error) ReasonCode {
	var r Reasoner
	if errors.As(err, &r) {
		return r.Reason()
	}
	return ReasonInternal
}

// InsufficientHistoryError is returned when a pair has too few aligned observations
type InsufficientHistoryError struct {
	SymbolA string
	SymbolB string
	Have    int
	Need    int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s/%s: %d aligned observations, need %d",
		e.SymbolA, e.SymbolB, e.Have, e.Need)
}

func (e *InsufficientHistoryError) Reason() ReasonCode { return ReasonInsufficientHistory }

// NumericalInstabilityError is returned when a regression design is degenerate
type NumericalInstabilityError struct {
	Stage  string
	Detail string
	Err    error
}

func (e *NumericalInstabilityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("numerical instability in %s: %s: %v", e.Stage, e.Detail, e.Err)
	}
	return fmt.Sprintf("numerical instability in %s: %s", e.Stage, e.Detail)
}

func (e *NumericalInstabilityError) Unwrap() error { return e.Err }

func (e *NumericalInstabilityError) Reason() ReasonCode { return ReasonNumericalInstability }

// AllocationError is returned when share rounding cannot keep the position neutral
type AllocationError struct {
	SymbolA     string
	SymbolB     string
	NetExposure float64
	Tolerance   float64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot size %s/%s: net exposure %.4f exceeds tolerance %.4f",
		e.SymbolA, e.SymbolB, e.NetExposure, e.Tolerance)
}

func (e *AllocationError) Reason() ReasonCode { return ReasonAllocation }
