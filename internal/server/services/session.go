package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// SessionIDBytes is the entropy of a session id; ids are hex encoded.
const SessionIDBytes = 32

// Validation is the outcome of a successful session check. When Rolled is
// set, Session is the replacement and the caller must switch to its ID.
type Validation struct {
	Session *models.Session
	Rolled  bool
}

// SessionService issues, validates, rolls over and revokes sessions.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	rollover    time.Duration
	grace       time.Duration
	timeout     time.Duration
	audit       Auditor
	logger      logging.Logger
	now         func() time.Time
	newID       func() (string, error)
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, a Auditor, l logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		ttl:         cfg.SessionTTL,
		rollover:    cfg.SessionRolloverThreshold,
		grace:       cfg.SessionRolloverGrace,
		timeout:     cfg.StoreTimeout,
		audit:       a,
		logger:      l.With("module", "session_service"),
		now:         time.Now,
		newID: func() (string, error) {
			return common.RandomToken(SessionIDBytes)
		},
	}
}

// Issue creates a session for userID carrying role.
func (s *SessionService) Issue(ctx context.Context, userID string, role models.Role) (*models.Session, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidRole, role)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.build(userID, role)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, sess); err != nil {
		return nil, storeErr("issue session", err)
	}
	return sess, nil
}

func (s *SessionService) build(userID string, role models.Role) (*models.Session, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC()
	return &models.Session{
		ID:        id,
		UserID:    userID,
		Role:      role,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}, nil
}

// Validate checks sessionID and, when required is not empty, that the
// session carries that role.
//
// Expired sessions are deleted and reported as ErrSessionExpired. A session
// close to expiry is replaced by a fresh one in the same transaction; the
// old id stays usable only for the grace period and is never rolled again.
func (s *SessionService) Validate(ctx context.Context, sessionID string, required models.Role) (*Validation, error) {
	if sessionID == "" {
		return nil, common.ErrUnauthenticated
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		result  *Validation
		outcome error
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		now := s.now().UTC()

		sess, err := repo.FindForUpdate(ctx, sessionID)
		if errors.Is(err, common.ErrorNotFound) {
			outcome = common.ErrUnauthenticated
			return nil
		}
		if err != nil {
			return err
		}

		if sess.Expired(now) {
			outcome = common.ErrSessionExpired
			return repo.Delete(ctx, sess.ID)
		}

		if required != "" && sess.Role != required {
			outcome = common.ErrForbidden
			return nil
		}

		if sess.ReplacedBy != "" || sess.ExpiresAt.Sub(now) > s.rollover {
			result = &Validation{Session: sess}
			return nil
		}

		next, err := s.build(sess.UserID, sess.Role)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, next); err != nil {
			return err
		}
		graceEnd := now.Add(s.grace)
		if sess.ExpiresAt.Before(graceEnd) {
			graceEnd = sess.ExpiresAt
		}
		if err := repo.Supersede(ctx, sess.ID, next.ID, graceEnd); err != nil {
			return err
		}
		result = &Validation{Session: next, Rolled: true}
		return nil
	})
	if err != nil {
		return nil, storeErr("validate session", err)
	}
	if outcome != nil {
		return nil, outcome
	}
	if result.Rolled {
		s.logger.Debug(ctx, "session rolled over", "user_id", result.Session.UserID)
	}
	return result, nil
}

// Revoke ends sessionID together with the session it replaced, if any, so a
// rolled-over predecessor does not outlive a logout. Unknown ids are ignored.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var userID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Sessions(tx)
		sess, err := repo.FindForUpdate(ctx, sessionID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		userID = sess.UserID
		if err := repo.Delete(ctx, sessionID); err != nil {
			return err
		}
		_, err = repo.DeleteReplaced(ctx, sessionID)
		return err
	})
	if err != nil {
		return storeErr("revoke session", err)
	}

	if userID != "" && s.audit != nil {
		s.audit.Record(ctx, models.AuditEntry{
			UserID:    userID,
			Action:    models.ActionLogout,
			Success:   true,
			Timestamp: s.now().UTC(),
		})
	}
	return nil
}

// RevokeAll ends every session of userID and returns how many there were.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repomanager.Sessions(s.db).DeleteByUser(ctx, userID)
	if err != nil {
		return 0, storeErr("revoke sessions", err)
	}
	return n, nil
}

// SweepExpired deletes every session that is past its expiry.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, storeErr("sweep sessions", err)
	}
	return n, nil
}
