package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cifinalize/internal/logging"
	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform"
)

// ErrTransactionFailure is matched by every *TransactionError.
var ErrTransactionFailure = errors.New("ticket transaction failed")

// Step names a stage of the ticket transaction.
type Step string

const (
	StepBegin  Step = "begin"
	StepWrite  Step = "write"
	StepFinish Step = "finish"
)

// TransactionError reports a failed ticket install. The transaction has
// already been aborted when this error is returned.
type TransactionError struct {
	Step    Step
	TitleID uint64
	Err     error
	// AbortErr is set when the abort itself failed.
	AbortErr error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("install ticket %016x: %s failed: %v", e.TitleID, e.Step, e.Err)
	if e.AbortErr != nil {
		msg += fmt.Sprintf(" (abort also failed: %v)", e.AbortErr)
	}
	return msg
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailure
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the failure for reporting.
func (e *TransactionError) ErrorKind() string {
	return "transaction_failure"
}

// Code returns the console result code of the failed step.
func (e *TransactionError) Code() platform.Result {
	return platform.CodeOf(e.Err)
}

// Installer installs tickets one transaction at a time.
type Installer struct {
	svc      platform.Service
	template *Template
	logger   *slog.Logger
}

// NewInstaller constructs an Installer. A nil template selects DefaultTemplate.
func NewInstaller(svc platform.Service, template *Template, logger *slog.Logger) *Installer {
	if template == nil {
		template = DefaultTemplate()
	}
	return &Installer{
		svc:      svc,
		template: template,
		logger:   logging.NewComponentLogger(logger, "ticket"),
	}
}

// Install runs Begin, Write and Finish for entry.
func (i *Installer) Install(ctx context.Context, entry pendingdb.Entry) error {
	blob := i.template.Patch(entry)

	handle, err := i.svc.BeginTicket(ctx)
	if err != nil {
		// Abort even without a handle so a half-opened transaction is never
		// left behind. The begin error stays the cause.
		abortErr := i.abort(ctx, handle, entry.TitleID)
		return &TransactionError{Step: StepBegin, TitleID: entry.TitleID, Err: err, AbortErr: abortErr}
	}

	if err := i.svc.WriteTicket(ctx, handle, blob); err != nil {
		abortErr := i.abort(ctx, handle, entry.TitleID)
		return &TransactionError{Step: StepWrite, TitleID: entry.TitleID, Err: err, AbortErr: abortErr}
	}

	if err := i.svc.FinishTicket(ctx, handle); err != nil {
		abortErr := i.abort(ctx, handle, entry.TitleID)
		return &TransactionError{Step: StepFinish, TitleID: entry.TitleID, Err: err, AbortErr: abortErr}
	}

	i.logger.Debug("ticket installed",
		logging.String(logging.FieldTitleID, logging.TitleID(entry.TitleID)),
		logging.Int("ticket_bytes", len(blob)),
	)
	return nil
}

func (i *Installer) abort(ctx context.Context, handle platform.TicketHandle, titleID uint64) error {
	err := i.svc.AbortTicket(ctx, handle)
	if err != nil {
		i.logger.Error("ticket abort failed",
			logging.String(logging.FieldTitleID, logging.TitleID(titleID)),
			logging.String(logging.FieldResultCode, platform.CodeOf(err).String()),
			logging.Error(err),
		)
	}
	return err
}
