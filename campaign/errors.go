package campaign

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoDueBatches is returned by the repository when a claim attempt
	// matched no rows. It signals an empty poll cycle, not a failure.
	ErrNoDueBatches = errors.New("no batches are due for dispatch")

	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrBatchAlreadyResolved is returned by the terminal batch updates when
	// the row was no longer in the processing state. The worker lost ownership
	// (stale reclaim) and must not report an outcome for it.
	ErrBatchAlreadyResolved = errors.New("batch has already been resolved")
)

// ValidationError covers malformed CreateCampaign input. Nothing is persisted
// when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid campaign request: %s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError covers tenant/channel settings problems (channel disabled,
// no webhook configured). Nothing is persisted when one is returned.
type ConfigurationError struct {
	TenantId string
	Channel  Channel
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("campaign configuration error for tenant %s on channel %s: %s", e.TenantId, e.Channel, e.Reason)
}

func NewConfigurationError(tenantId string, channel Channel, reason string) error {
	return &ConfigurationError{TenantId: tenantId, Channel: channel, Reason: reason}
}
