// Package historian drains finished turns from the Redis queue and archives
// them in Postgres.
package historian

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/taboo/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields queued turn records. PopTurn returns nil, nil when nothing
// arrived within timeout.
type Source interface {
	PopTurn(ctx context.Context, timeout time.Duration) (*cache.TurnRecord, error)
}

// Store persists a batch of records atomically.
type Store interface {
	SaveTurns(ctx context.Context, recs []cache.TurnRecord) error
}

// Service batches records from a Source into a Store.
type Service struct {
	src   Source
	store Store
	log   logrus.FieldLogger

	// BatchSize triggers a flush as soon as that many records are pending.
	BatchSize int
	// FlushDelay bounds how long a partial batch waits.
	FlushDelay time.Duration
	// PopTimeout is how long each blocking pop waits, which is also how
	// quickly Run notices cancellation.
	PopTimeout time.Duration
	// RetryDelay is the pause after a failed pop.
	RetryDelay time.Duration

	batchMu sync.Mutex
	batch   []cache.TurnRecord
}

func NewService(src Source, store Store, logger logrus.FieldLogger) *Service {
	return &Service{
		src:        src,
		store:      store,
		log:        logger,
		BatchSize:  20,
		FlushDelay: 500 * time.Millisecond,
		PopTimeout: 3 * time.Second,
		RetryDelay: time.Second,
	}
}

// Run pops records until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()

	retry := time.NewTimer(s.RetryDelay)
	retry.Stop()
	defer retry.Stop()

	s.log.Info("historian started")
	for ctx.Err() == nil {
		rec, err := s.src.PopTurn(ctx, s.PopTimeout)
		switch {
		case rec != nil:
			// already off the queue, keep it even when ctx is done
			s.add(ctx, *rec)
		case ctx.Err() != nil:
		case errors.Is(err, cache.ErrBadRecord):
			s.log.WithError(err).Warn("skipping queue entry")
		case err != nil:
			s.log.WithError(err).Error("pop from turn queue failed")
			retry.Reset(s.RetryDelay)
			select {
			case <-ctx.Done():
				retry.Stop()
			case <-retry.C:
			}
		}
	}
	wg.Wait()

	final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(final)
	s.log.Info("historian stopped")
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) add(ctx context.Context, rec cache.TurnRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch and returns how many records were saved. A
// write cut short by ctx puts the batch back for the next flush; any other
// failure drops it.
func (s *Service) Flush(ctx context.Context) int {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return 0
	}
	pending := s.batch
	s.batch = nil
	s.batchMu.Unlock()

	if err := s.store.SaveTurns(ctx, pending); err != nil {
		if ctx.Err() != nil {
			s.requeue(pending)
			s.log.WithField("count", len(pending)).Debug("flush interrupted, batch kept")
			return 0
		}
		s.log.WithFields(logrus.Fields{
			"error":   err,
			"dropped": len(pending),
		}).Error("flush to database failed")
		return 0
	}
	s.log.WithField("count", len(pending)).Debug("flushed turns")
	return len(pending)
}

// requeue puts records ahead of anything added since they were taken.
func (s *Service) requeue(recs []cache.TurnRecord) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(recs, s.batch...)
}

// Pending is the number of records waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PostgresStore writes records into taboo_turns_history.
type PostgresStore struct {
	db TxBeginner
}

func NewPostgresStore(db TxBeginner) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertTurn = `
	INSERT INTO taboo_turns_history (
		room_code, describer_id, describer_name, word, reason, scored, ended_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// SaveTurns inserts every record in a single transaction.
func (p *PostgresStore) SaveTurns(ctx context.Context, recs []cache.TurnRecord) error {
	return beginTxFunc(ctx, p.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			_, err := tx.Exec(ctx, insertTurn,
				rec.RoomCode, rec.DescriberID, rec.DescriberName, rec.Word, rec.Reason, rec.Scored,
				time.UnixMilli(rec.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("insert turn for room %s: %w", rec.RoomCode, err)
			}
		}
		return nil
	})
}

// beginTxFunc starts a transaction, calls f with it, and commits or rolls back.
func beginTxFunc(ctx context.Context, db TxBeginner, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}
