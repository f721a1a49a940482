// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// ValidationResult is the outcome of validating a candidate meeting.
// Errors block submission, warnings are informational.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// FirstError returns the first blocking error, or an empty string when valid.
func (r *ValidationResult) FirstError() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}
