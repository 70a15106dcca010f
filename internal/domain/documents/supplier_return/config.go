package supplier_return

import "fmt"

// ReturnPolicyConfig decides how new returns start and how they touch stock.
type ReturnPolicyConfig struct {
	// AutoApprove starts submitted returns as approved, deducting stock at once.
	AutoApprove bool

	// AllowNegativeStock lets return deductions drive quantities below zero.
	AllowNegativeStock bool

	// DefaultStatus is the initial status without auto-approval: pending or approved.
	DefaultStatus Status
}

// DefaultReturnPolicy returns the conservative policy: manual approval, no negative stock.
func DefaultReturnPolicy() ReturnPolicyConfig {
	return ReturnPolicyConfig{DefaultStatus: StatusPending}
}

// InitialStatus resolves the status a submitted return starts in.
func (p ReturnPolicyConfig) InitialStatus() Status {
	if p.AutoApprove || p.DefaultStatus == StatusApproved {
		return StatusApproved
	}
	return StatusPending
}

// Validate checks the policy.
func (p ReturnPolicyConfig) Validate() error {
	switch p.DefaultStatus {
	case StatusPending, StatusApproved:
		return nil
	}
	return fmt.Errorf("return default status must be pending or approved, got %q", p.DefaultStatus)
}
