package connector

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// retryConnect dials until connectFn succeeds, the attempts run out or ctx
// ends. Configuration and server-side errors are not retried.
func retryConnect(ctx context.Context, opts RetryConfig, log logrus.FieldLogger, connectFn func(context.Context) (database.Conn, error)) (database.Conn, error) {
	var err error
	var conn database.Conn
	delay := opts.BaseDelay
	if delay == 0 {
		delay = time.Second // default
	}
	backoff := opts.Backoff
	if backoff < 1 {
		backoff = 2
	}

	for i := 0; i <= opts.MaxRetries; i++ {
		conn, err = connectFn(ctx)
		if err == nil {
			return conn, nil
		}
		if !retryable(err) || i == opts.MaxRetries {
			break
		}
		log.WithFields(logrus.Fields{"attempt": i + 1, "delay": delay}).WithError(err).Warn("Dial failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
			delay = time.Duration(float64(delay) * backoff)
			if delay > opts.MaxDelay && opts.MaxDelay > 0 {
				delay = opts.MaxDelay
			}
		}
	}
	return nil, err
}

func retryable(err error) bool {
	return errors.Is(err, errs.ErrConnectionLost) || errors.Is(err, io.EOF)
}
