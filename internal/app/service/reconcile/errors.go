package reconcile

import (
	"github.com/cockroachdb/errors"

	"github.com/fatflowers/subsync/pkg/config"
)

// Sync error taxonomy. Errors returned by Syncer are marked with exactly one
// of the first six and can be matched with errors.Is.
var (
	ErrConfiguration    = config.ErrConfiguration
	ErrInvalidRequest   = errors.New("invalid sync request")
	ErrProviderAuth     = errors.New("provider authentication error")
	ErrProviderResource = errors.New("provider resource error")
	ErrLocalPersistence = errors.New("local persistence error")
	ErrStaleSession     = errors.New("stale session: sync result discarded")

	// ErrOwnerMismatch is only recorded on the audit row. The sync itself
	// succeeds without projecting settings.
	ErrOwnerMismatch = errors.New("subscription owned by another user")
)

func markProviderAuth(err error) error {
	return errors.WithHint(
		errors.Mark(errors.Wrap(err, "obtain provider access token"), ErrProviderAuth),
		"Couldn't reach the payment provider. Please try again.",
	)
}

func markProviderResource(err error, subscriptionID string) error {
	return errors.WithHint(
		errors.Mark(errors.Wrapf(err, "retrieve subscription %s", subscriptionID), ErrProviderResource),
		"Couldn't load the subscription from the payment provider. Please try again.",
	)
}

func markPersistence(err error, what string) error {
	return errors.Mark(errors.Wrapf(err, "write %s", what), ErrLocalPersistence)
}

// Hint returns the user-facing hint attached to err, if any.
func Hint(err error) string {
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return ""
	}
	return hints[0]
}
