package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JosineyJr/switch_router/internal/metrics"
	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var ErrEmptyTransactionID = errors.New("transaction id must not be empty")

type Selector interface {
	SelectNext() (string, error)
}

type Store interface {
	Get(ctx context.Context, transactionID string) (structs.Transaction, bool, error)
	// Reserve inserts a PENDING record with the next sequence number unless
	// one exists, in which case the existing record is returned with false.
	Reserve(ctx context.Context, transactionID string, payload structs.TransactionPayload, at time.Time) (structs.Transaction, bool, error)
	Save(ctx context.Context, tx structs.Transaction) error
}

type DispatchError struct {
	TransactionID string
	Endpoint      string
	Err           error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch transaction %s to %s: %v", e.TransactionID, e.Endpoint, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

type Dispatcher struct {
	store    Store
	selector Selector
	client   SwitchClient
	timeout  time.Duration
	recorder metrics.Recorder
	log      zerolog.Logger
	inflight singleflight.Group
	now      func() time.Time
}

func NewDispatcher(
	s Store,
	sel Selector,
	c SwitchClient,
	t time.Duration,
	r metrics.Recorder,
	l zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:    s,
		selector: sel,
		client:   c,
		timeout:  t,
		recorder: r,
		log:      l,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit processes the transaction at most once per transactionID. A stored
// record is returned as is, whatever its status. Callers racing a dispatch in
// flight wait for it and share its outcome.
func (d *Dispatcher) Submit(
	ctx context.Context,
	transactionID string,
	payload structs.TransactionPayload,
) (structs.Transaction, error) {
	if transactionID == "" {
		return structs.Transaction{}, ErrEmptyTransactionID
	}

	tx, ok, err := d.store.Get(ctx, transactionID)
	if err != nil {
		return structs.Transaction{}, fmt.Errorf("lookup transaction %s: %w", transactionID, err)
	}
	if ok {
		d.log.Info().Str("transaction", transactionID).Msg("transaction already processed")
		return tx, nil
	}

	v, err, _ := d.inflight.Do(transactionID, func() (any, error) {
		return d.process(context.WithoutCancel(ctx), transactionID, payload)
	})
	tx, _ = v.(structs.Transaction)
	return tx, err
}

func (d *Dispatcher) process(
	ctx context.Context,
	transactionID string,
	payload structs.TransactionPayload,
) (structs.Transaction, error) {
	tx, reserved, err := d.store.Reserve(ctx, transactionID, payload, d.now())
	if err != nil {
		return structs.Transaction{}, fmt.Errorf("reserve transaction %s: %w", transactionID, err)
	}
	if !reserved {
		return tx, nil
	}

	endpoint, err := d.selector.SelectNext()
	if err != nil {
		return d.settle(ctx, tx, "", err)
	}

	d.log.Info().
		Str("transaction", transactionID).
		Int64("sequence", tx.SequenceNumber).
		Str("switch", endpoint).
		Msg("routing transaction")

	if err := d.send(ctx, endpoint, tx); err != nil {
		return d.settle(ctx, tx, endpoint, &DispatchError{
			TransactionID: transactionID,
			Endpoint:      endpoint,
			Err:           err,
		})
	}

	return d.settle(ctx, tx, endpoint, nil)
}

// send bounds the remote call by the dispatch timeout even if the client
// ignores its context.
func (d *Dispatcher) send(ctx context.Context, endpoint string, tx structs.Transaction) error {
	ctxSend, cancelSend := context.WithTimeout(ctx, d.timeout)
	defer cancelSend()

	type result struct {
		status structs.TransactionStatus
		err    error
	}
	results := make(chan result, 1)
	go func() {
		status, err := d.client.Send(ctxSend, endpoint, tx)
		results <- result{status, err}
	}()

	select {
	case <-ctxSend.Done():
		return ctxSend.Err()
	case r := <-results:
		if r.err != nil {
			return r.err
		}
		if r.status == structs.StatusFailed {
			return ErrSwitchRejected
		}
		return nil
	}
}

func (d *Dispatcher) settle(
	ctx context.Context,
	tx structs.Transaction,
	endpoint string,
	cause error,
) (structs.Transaction, error) {
	settledAt := d.now()
	tx.Endpoint = endpoint
	tx.SettledAt = &settledAt
	tx.Status = structs.StatusCompleted
	if cause != nil {
		tx.Status = structs.StatusFailed
		tx.FailureReason = cause.Error()
	}

	if err := d.store.Save(ctx, tx); err != nil {
		d.log.Error().Err(err).Str("transaction", tx.TransactionID).Msg("failed to save settled transaction")
		return tx, errors.Join(cause, fmt.Errorf("save transaction %s: %w", tx.TransactionID, err))
	}

	d.recorder.RecordTransaction(tx)

	if cause != nil {
		d.log.Error().Err(cause).Str("transaction", tx.TransactionID).Msg("transaction failed")
		return tx, cause
	}

	d.log.Info().Str("transaction", tx.TransactionID).Str("switch", endpoint).Msg("transaction completed")
	return tx, nil
}
