package domain

import (
	"errors"
	"fmt"
)

// PairResult records what provisioning did for one (language, config) pair.
type PairResult struct {
	Language      string      `json:"language"`
	Config        string      `json:"config"`
	Index         string      `json:"index"`
	CommerceIndex string      `json:"commerce_index,omitempty"`
	Type          MappingKind `json:"type"`
	TypeName      string      `json:"type_name,omitempty"`
	// Created lists physical indices this run created.
	Created []string `json:"created,omitempty"`
	// DynamicDisabled lists indices that received the dynamic=false mapping.
	DynamicDisabled []string `json:"dynamic_disabled,omitempty"`
	// Warnings are recovered conditions such as health timeouts.
	Warnings []string `json:"warnings,omitempty"`
	Err      error    `json:"-"`
}

// Failed reports whether the pair ended in error.
func (r PairResult) Failed() bool {
	return r.Err != nil
}

// Report aggregates a provisioning run.
type Report struct {
	Pairs []PairResult `json:"pairs"`
}

// Err joins every pair failure, or nil when all pairs succeeded.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.Pairs {
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", p.Language, p.Config, p.Err))
		}
	}
	return errors.Join(errs...)
}

// Failures counts failed pairs.
func (r *Report) Failures() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Pairs {
		if p.Failed() {
			n++
		}
	}
	return n
}

// DeleteResult is the outcome for one index in a bulk delete.
type DeleteResult struct {
	Index string `json:"index"`
	Err   error  `json:"-"`
}
