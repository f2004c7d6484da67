package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Auditor receives security events. Record never fails and never blocks the
// caller for long; delivery is best effort.
type Auditor interface {
	Record(ctx context.Context, e models.AuditEntry)
}

// AuditorFunc adapts a function to Auditor.
type AuditorFunc func(ctx context.Context, e models.AuditEntry)

func (f AuditorFunc) Record(ctx context.Context, e models.AuditEntry) { f(ctx, e) }

// AsyncAuditor queues entries and writes them from a single worker.
// When the queue is full the entry is dropped with a warning; write errors
// are logged.
type AsyncAuditor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	logger      logging.Logger
	now         func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan models.AuditEntry
	wg     sync.WaitGroup
}

func NewAsyncAuditor(db *sql.DB, m repomanager.RepositoryManager, buffer int, timeout time.Duration, l logging.Logger) *AsyncAuditor {
	if buffer < 1 {
		buffer = 1
	}
	return &AsyncAuditor{
		db:          db,
		repomanager: m,
		timeout:     timeout,
		logger:      l.With("module", "auditor"),
		now:         time.Now,
		queue:       make(chan models.AuditEntry, buffer),
	}
}

// Start launches the worker. Writes use ctx values but not its cancellation,
// so entries queued before Close are still flushed.
func (a *AsyncAuditor) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for e := range a.queue {
			a.write(ctx, e)
		}
	}()
}

func (a *AsyncAuditor) Record(ctx context.Context, e models.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = a.now().UTC()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Warn(ctx, "audit entry after close dropped", "action", e.Action, "user_id", e.UserID)
		return
	}
	select {
	case a.queue <- e:
	default:
		a.logger.Warn(ctx, "audit queue full, entry dropped", "action", e.Action, "user_id", e.UserID)
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (a *AsyncAuditor) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *AsyncAuditor) write(ctx context.Context, e models.AuditEntry) {
	ctx, cancel := dbx.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.repomanager.AuditLog(a.db).Append(ctx, &e); err != nil {
		a.logger.Error(ctx, "audit write failed", "action", e.Action, "user_id", e.UserID, "error", err)
	}
}

// Archiver stores expired audit entries before they are purged and returns
// the location it wrote to.
type Archiver interface {
	Archive(ctx context.Context, entries []*models.AuditEntry) (string, error)
}

// AuditService answers audit queries and enforces retention.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	retention   time.Duration
	timeout     time.Duration
	archiver    Archiver
	logger      logging.Logger
	now         func() time.Time
}

// NewAuditService builds an AuditService. archiver may be nil, in which case
// expired entries are deleted without a copy.
func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, retention, timeout time.Duration, archiver Archiver, l logging.Logger) *AuditService {
	return &AuditService{
		db:          db,
		repomanager: m,
		retention:   retention,
		timeout:     timeout,
		archiver:    archiver,
		logger:      l.With("module", "audit_service"),
		now:         time.Now,
	}
}

func (s *AuditService) List(ctx context.Context, f models.AuditFilter) ([]*models.AuditEntry, int, error) {
	if err := validatePage(f.Page, f.PerPage); err != nil {
		return nil, 0, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, common.ErrValidation
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, total, err := s.repomanager.AuditLog(s.db).List(ctx, f)
	if err != nil {
		return nil, 0, storeErr("list audit log", err)
	}
	return list, total, nil
}

// PurgeExpired removes entries older than the retention period, archiving
// them first when an archiver is configured. A failed archive keeps the
// entries in place.
func (s *AuditService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.AuditLog(tx)

		if s.archiver != nil {
			expired, err := repo.ListBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if len(expired) == 0 {
				return nil
			}
			key, err := s.archiver.Archive(ctx, expired)
			if err != nil {
				return err
			}
			s.logger.Info(ctx, "audit entries archived", "count", len(expired), "key", key)
		}

		var err error
		n, err = repo.DeleteBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, storeErr("purge audit log", err)
	}
	return n, nil
}
