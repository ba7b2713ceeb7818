package polling

import (
	"context"
	"math"
	"time"

	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// Strategy decides how long to wait before the next poll
type Strategy interface {
	// NextInterval returns the wait after a poll that succeeded or failed
	NextInterval(success bool) time.Duration
	// Reset returns the strategy to its initial state
	Reset()
}

// ExponentialBackoffStrategy polls at a fixed interval while polls succeed
// and backs off exponentially, up to maxInterval, while they fail.
type ExponentialBackoffStrategy struct {
	baseInterval   time.Duration
	maxInterval    time.Duration
	multiplier     float64
	currentBackoff int
	logger         *logrus.Logger
}

// NewExponentialBackoffStrategy creates a new ExponentialBackoffStrategy
func NewExponentialBackoffStrategy(
	baseInterval time.Duration,
	maxInterval time.Duration,
	multiplier float64,
	logger *logrus.Logger,
) *ExponentialBackoffStrategy {
	if multiplier <= 1 {
		multiplier = 2.0
	}
	if maxInterval < baseInterval {
		maxInterval = baseInterval
	}

	return &ExponentialBackoffStrategy{
		baseInterval: baseInterval,
		maxInterval:  maxInterval,
		multiplier:   multiplier,
		logger:       logger,
	}
}

// NextInterval computes the wait before the next poll
func (s *ExponentialBackoffStrategy) NextInterval(success bool) time.Duration {
	if success {
		if s.currentBackoff > 0 {
			s.logger.Debug("Resetting verification backoff after success")
			s.currentBackoff = 0
			metrics.SetVerifyBackoffLevel(0)
		}
		return s.baseInterval
	}

	s.currentBackoff++
	metrics.SetVerifyBackoffLevel(float64(s.currentBackoff))

	backoff := float64(s.baseInterval) * math.Pow(s.multiplier, float64(s.currentBackoff-1))
	nextInterval := time.Duration(backoff)
	if nextInterval > s.maxInterval || nextInterval <= 0 {
		nextInterval = s.maxInterval
	}

	s.logger.WithFields(logrus.Fields{
		"backoff_count": s.currentBackoff,
		"next_interval": nextInterval,
		"max_interval":  s.maxInterval,
	}).Debug("Verification backoff calculated")

	return nextInterval
}

// Reset clears the backoff counter
func (s *ExponentialBackoffStrategy) Reset() {
	s.currentBackoff = 0
	metrics.SetVerifyBackoffLevel(0)
}

// PollingController runs a task repeatedly at the strategy's intervals
type PollingController struct {
	strategy Strategy
	logger   *logrus.Logger
}

// NewPollingController creates a new PollingController
func NewPollingController(strategy Strategy, logger *logrus.Logger) *PollingController {
	return &PollingController{
		strategy: strategy,
		logger:   logger,
	}
}

// Start runs task until ctx is done. The first run happens after one base interval.
func (c *PollingController) Start(ctx context.Context, task func(context.Context) error) error {
	timer := time.NewTimer(c.strategy.NextInterval(true))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			err := task(ctx)
			if err != nil {
				c.logger.WithError(err).Error("Polling task failed")
			}
			timer.Reset(c.strategy.NextInterval(err == nil))
		}
	}
}
