package services

import (
	"context"
	"time"

	"agora/internal/config"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

// errVersionConflict means another writer bumped the row version between our
// read and our conditional write.
var errVersionConflict = errors.New("version conflict")

// withCAS runs step until it commits without a version conflict. Other errors
// abort immediately. Running out of attempts is reported as unavailable.
func withCAS(ctx context.Context, cfg *config.Config, onConflict func(), step func() error) error {
	attempts := cfg.VoteRetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	jitter := cfg.VoteRetryDelay
	if jitter <= 0 {
		jitter = time.Millisecond
	}
	err := retry.Do(
		func() error {
			err := step()
			if errors.Is(err, errVersionConflict) && onConflict != nil {
				onConflict()
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.VoteRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
		retry.MaxJitter(jitter),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errVersionConflict)
		}),
	)
	if errors.Is(err, errVersionConflict) {
		return errors.Wrap(ErrUnavailable, "too much contention, try again")
	}
	return err
}
