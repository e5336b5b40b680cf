package orchestrator

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// ChangeTokenizer swaps the default analyzer's tokenizer on index. Analyzer
// settings are immutable on an open index, so the steps are strictly
// close, update settings, open, wait for health.
//
// A failed close or open returns *domain.IndexLeftClosedError and is never
// retried here. A failed settings update still reopens the index before the
// *domain.ClusterError is returned. A health timeout after reopening is fatal.
func (o *Orchestrator) ChangeTokenizer(ctx context.Context, index, tokenizer string) error {
	log := o.logger.With(
		infralogger.String("index_name", index),
		infralogger.String("tokenizer", tokenizer),
	)

	log.Info("Closing index for tokenizer change")
	if err := o.cluster.CloseIndex(ctx, index); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return err
		}
		log.Error("Close failed", infralogger.Error(err))
		return &domain.IndexLeftClosedError{Index: index, Step: "close", Err: err}
	}

	// The index is closed now; finish the cycle regardless of the caller.
	seq := context.WithoutCancel(ctx)

	settingsErr := o.cluster.PutSettings(seq, index, o.bodies.TokenizerSettings(tokenizer))
	if settingsErr != nil {
		log.Error("Settings update failed, reopening with previous analyzer", infralogger.Error(settingsErr))
	}

	if err := o.cluster.OpenIndex(seq, index); err != nil {
		log.Error("Reopen failed, index needs manual recovery", infralogger.Error(err))
		return &domain.IndexLeftClosedError{Index: index, Step: "open", Err: errors.Join(err, settingsErr)}
	}

	status, err := o.health.WaitForStatus(seq, index, o.opts.TokenizerHealthTimeout)
	if err != nil {
		return err
	}
	if settingsErr != nil {
		return settingsErr
	}

	log.Info("Tokenizer changed", infralogger.String("status", status.String()))
	return nil
}
