package orchestrator

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// DeleteIndex removes one physical index. A missing index is
// *domain.NotFoundError.
func (o *Orchestrator) DeleteIndex(ctx context.Context, index string) error {
	if err := o.cluster.DeleteIndex(ctx, index); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			o.logger.Warn("Index to delete not found", infralogger.String("index_name", index))
		} else {
			o.logger.Error("Failed to delete index", infralogger.String("index_name", index), infralogger.Error(err))
		}
		return err
	}
	o.logger.Info("Index deleted", infralogger.String("index_name", index))
	return nil
}

// DeleteAll deletes each index in order and returns one result per name.
// Failures, including not-found, do not stop the remaining deletions.
// Deletions are paced by Options.DeleteRate.
func (o *Orchestrator) DeleteAll(ctx context.Context, indices []string) []domain.DeleteResult {
	results := make([]domain.DeleteResult, 0, len(indices))
	for _, index := range indices {
		if err := ctx.Err(); err != nil {
			results = append(results, domain.DeleteResult{Index: index, Err: err})
			continue
		}
		if err := o.deletes.Wait(ctx); err != nil {
			results = append(results, domain.DeleteResult{Index: index, Err: err})
			continue
		}
		results = append(results, domain.DeleteResult{Index: index, Err: o.DeleteIndex(ctx, index)})
	}
	return results
}

func newDeleteLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
