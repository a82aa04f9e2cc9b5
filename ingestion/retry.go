// Copyright 2026 Brightpath Learning
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
)

// permanentErr reports whether retrying cannot help. Bad input and a
// misconfigured model dimension fail identically on every attempt, so the
// chunk is failed right away instead of burning the backoff budget.
func permanentErr(err error) bool {
	return errors.Is(err, core.ErrInvalidRequest) ||
		errors.Is(err, core.ErrInvalidRecord) ||
		errors.Is(err, ai.ErrEmptyText) ||
		errors.Is(err, storage.ErrDimensionMismatch)
}

// RetryWithBackoff runs operation up to maxAttempts times, doubling the wait
// after each failed attempt starting from baseDelay. Transient provider and
// storage errors are the intended targets; permanent errors and context
// cancellation end the loop immediately with that error.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := baseDelay
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			if attempt > 1 {
				slog.Debug("operation recovered", "attempt", attempt)
			}
			return nil
		}
		if permanentErr(err) || attempt == maxAttempts {
			return err
		}

		slog.Debug("transient failure, backing off",
			"attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
