package interview

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yourusername/interview-api/internal/pkg/metrics"
)

type callResult[T any] struct {
	value *T
	err   error
}

// callCollaborator вызывает внешний сервис с дедлайном на каждую попытку и
// ограниченным числом повторов. false означает, что нужно подставить значение по умолчанию.
// Дедлайн соблюдается, даже если сервис игнорирует контекст.
func callCollaborator[T any](
	ctx context.Context,
	cfg *Config,
	log zerolog.Logger,
	name string,
	call func(ctx context.Context) (*T, error),
) (*T, bool) {
	attempts := cfg.CollaboratorRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, cfg.CollaboratorTimeout)
		ch := make(chan callResult[T], 1)
		go func() {
			v, err := call(callCtx)
			ch <- callResult[T]{value: v, err: err}
		}()

		var res callResult[T]
		select {
		case res = <-ch:
		case <-callCtx.Done():
			res.err = callCtx.Err()
		}
		cancel()

		if res.err == nil && res.value == nil {
			res.err = errors.New("empty response")
		}
		if res.err == nil {
			if attempt > 0 {
				metrics.CollaboratorCall(name, metrics.OutcomeRetry)
			} else {
				metrics.CollaboratorCall(name, metrics.OutcomeOK)
			}
			return res.value, true
		}

		log.Warn().Err(res.err).
			Str("collaborator", name).
			Int("attempt", attempt+1).
			Int("attempts", attempts).
			Msg("Вызов внешнего сервиса не удался")

		// Запрос клиента отменен: повторять бессмысленно
		if ctx.Err() != nil {
			break
		}
	}

	metrics.CollaboratorCall(name, metrics.OutcomeFallback)
	return nil, false
}
