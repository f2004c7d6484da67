// Package services contains server-side business logic: credential checks
// with lockout, user administration, session lifecycle and auditing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// UserService owns the credential store: login checks with lockout and
// opportunistic rehash, and the administrative operations on accounts.
// Every read-modify-write runs in one transaction holding the user row lock.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	policy      LockoutPolicy
	params      cryptox.Params
	rootID      string
	timeout     time.Duration
	audit       Auditor
	logger      logging.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummySalt string
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, a Auditor, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		policy: LockoutPolicy{
			Window:          cfg.FailureWindow,
			MaxFailures:     cfg.MaxFailures,
			RehashThreshold: cfg.RehashCountThreshold,
			RootID:          cfg.RootAccountID,
		},
		params: cryptox.Params{
			Time:      cfg.Argon2Time,
			MemoryKiB: cfg.Argon2MemoryKiB,
			Threads:   cfg.Argon2Threads,
		},
		rootID:  cfg.RootAccountID,
		timeout: cfg.StoreTimeout,
		audit:   a,
		logger:  l.With("module", "user_service"),
		now:     time.Now,
	}
}

// EnsureRootAccount creates the root admin with password when it does not
// exist yet and reports whether it did.
func (s *UserService) EnsureRootAccount(ctx context.Context, password string) (bool, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.repomanager.Users(s.db).Get(ctx, s.rootID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, storeErr("get root account", err)
	}

	if err := s.create(ctx, s.rootID, password, models.RoleAdmin); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	s.record(ctx, s.rootID, models.ActionBootstrapRoot, nil, "")
	return true, nil
}

// Create adds a new unlocked account with zeroed counters.
func (s *UserService) Create(ctx context.Context, actor, id, password string, role models.Role) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.create(ctx, id, password, role)
	s.record(ctx, actor, models.ActionCreateUser, err, "target="+id)
	return err
}

func (s *UserService) create(ctx context.Context, id, password string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidRole, role)
	}
	if id == "" || password == "" {
		return fmt.Errorf("%w: id and password are required", common.ErrValidation)
	}

	salt, hash, err := cryptox.HashPassword([]byte(password), s.params)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           id,
		PasswordHash: hash,
		Salt:         salt,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repomanager.Users(s.db).Create(ctx, u); err != nil {
		return storeErr("create user", err)
	}
	return nil
}

// Authenticate checks id and password and applies the lockout rules.
//
// Unknown ids and wrong passwords both yield ErrInvalidCredential. A locked
// account yields ErrAccountLocked without looking at the password, and so
// does the failure that trips the lock. Failure counters are committed even
// though the call fails.
func (s *UserService) Authenticate(ctx context.Context, id, password string) (*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		user       *models.User
		outcome    error
		autoLocked bool
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetForUpdate(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(password)
			outcome = common.ErrInvalidCredential
			return nil
		}
		if err != nil {
			return err
		}

		if u.IsLocked {
			outcome = common.ErrAccountLocked
			return nil
		}

		ok, err := cryptox.VerifyPassword([]byte(password), u.PasswordHash, u.Salt)
		if err != nil {
			return fmt.Errorf("verify password for %s: %w", id, err)
		}

		if !ok {
			outcome = common.ErrInvalidCredential
			if s.policy.Exempt(u.ID) {
				return nil
			}
			if s.policy.RegisterFailure(u, s.now().UTC()) {
				autoLocked = true
				outcome = common.ErrAccountLocked
			}
			return repo.Update(ctx, u)
		}

		rehash := s.policy.RegisterSuccess(u)
		if rehash || cryptox.NeedsRehash(u.PasswordHash, s.params) {
			salt, hash, err := cryptox.HashPassword([]byte(password), s.params)
			if err != nil {
				return fmt.Errorf("rehash password: %w", err)
			}
			u.Salt, u.PasswordHash = salt, hash
			u.LoginsBeforeRehash = 0
			s.logger.Debug(ctx, "password rehashed", "user_id", u.ID)
		}
		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		err = storeErr("authenticate", err)
		s.record(ctx, id, models.ActionLogin, err, "")
		return nil, err
	}

	s.record(ctx, id, models.ActionLogin, outcome, "")
	if autoLocked {
		s.logger.Warn(ctx, "account locked after repeated failures", "user_id", id)
		s.record(ctx, id, models.ActionAutoLock, nil, "")
	}
	if outcome != nil {
		return nil, outcome
	}
	return user, nil
}

// ChangePassword replaces the password of id after checking old. Setting
// the same password again is a conflict.
func (s *UserService) ChangePassword(ctx context.Context, actor, id, oldPassword, newPassword string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if newPassword == "" {
			return fmt.Errorf("%w: new password is required", common.ErrValidation)
		}

		repo := s.repomanager.Users(tx)
		u, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		ok, err := cryptox.VerifyPassword([]byte(oldPassword), u.PasswordHash, u.Salt)
		if err != nil {
			return fmt.Errorf("verify password for %s: %w", id, err)
		}
		if !ok {
			return common.ErrInvalidCredential
		}
		if newPassword == oldPassword {
			return fmt.Errorf("%w: new password equals the old one", common.ErrConflict)
		}

		salt, hash, err := cryptox.HashPassword([]byte(newPassword), s.params)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.Salt, u.PasswordHash = salt, hash
		u.LoginsBeforeRehash = 0
		return repo.Update(ctx, u)
	})
	err = storeErr("change password", err)
	s.record(ctx, actor, models.ActionChangePassword, err, "target="+id)
	return err
}

// Delete removes the account id and reports whether it existed. The root
// account cannot be deleted. Sessions of the user go with it.
func (s *UserService) Delete(ctx context.Context, actor, id string) (bool, error) {
	if id == s.rootID {
		s.record(ctx, actor, models.ActionDeleteUser, common.ErrRootProtected, "target="+id)
		return false, common.ErrRootProtected
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var deleted bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Sessions(tx).DeleteByUser(ctx, id); err != nil {
			return err
		}
		var err error
		deleted, err = s.repomanager.Users(tx).Delete(ctx, id)
		return err
	})
	err = storeErr("delete user", err)

	auditErr := err
	if err == nil && !deleted {
		auditErr = common.ErrorNotFound
	}
	s.record(ctx, actor, models.ActionDeleteUser, auditErr, "target="+id)
	return deleted, err
}

// Lock blocks logins for id and revokes all of its sessions in the same
// transaction.
func (s *UserService) Lock(ctx context.Context, actor, id string) error {
	if id == s.rootID {
		s.record(ctx, actor, models.ActionLockUser, common.ErrRootProtected, "target="+id)
		return common.ErrRootProtected
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var revoked int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		u, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if u.IsLocked {
			return common.ErrAlreadyLocked
		}
		u.IsLocked = true
		u.FailedAttempts = 0
		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		revoked, err = s.repomanager.Sessions(tx).DeleteByUser(ctx, id)
		return err
	})
	err = storeErr("lock user", err)
	if err == nil {
		s.logger.Info(ctx, "user locked", "user_id", id, "by", actor, "sessions_revoked", revoked)
	}
	s.record(ctx, actor, models.ActionLockUser, err, "target="+id)
	return err
}

// Unlock clears the lock and the failure counter of id.
func (s *UserService) Unlock(ctx context.Context, actor, id string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		u, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !u.IsLocked {
			return common.ErrNotLocked
		}
		u.IsLocked = false
		u.FailedAttempts = 0
		u.LastFailedLogin = nil
		return repo.Update(ctx, u)
	})
	err = storeErr("unlock user", err)
	s.record(ctx, actor, models.ActionUnlockUser, err, "target="+id)
	return err
}

// List returns one page of users ordered by id and the total match count.
func (s *UserService) List(ctx context.Context, f models.UserFilter) ([]*models.User, int, error) {
	if err := validatePage(f.Page, f.PerPage); err != nil {
		return nil, 0, err
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", common.ErrInvalidRole, f.Role)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, total, err := s.repomanager.Users(s.db).List(ctx, f)
	if err != nil {
		return nil, 0, storeErr("list users", err)
	}
	return list, total, nil
}

func (s *UserService) ListLocked(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repomanager.Users(s.db).ListLocked(ctx)
	if err != nil {
		return nil, storeErr("list locked users", err)
	}
	return list, nil
}

func (s *UserService) CountLocked(ctx context.Context) (int, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repomanager.Users(s.db).CountLocked(ctx)
	if err != nil {
		return 0, storeErr("count locked users", err)
	}
	return n, nil
}

// burnVerify spends the same work as a real verification so that unknown
// ids cannot be told apart by timing.
func (s *UserService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummySalt, s.dummyHash, _ = cryptox.HashPassword(common.RandomBytes(16), s.params)
	})
	_, _ = cryptox.VerifyPassword([]byte(password), s.dummyHash, s.dummySalt)
}

func (s *UserService) record(ctx context.Context, actor, action string, err error, details string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditEntry{
		UserID:    actor,
		Action:    action,
		Success:   err == nil,
		ErrorCode: string(common.KindOf(err)),
		Details:   details,
		Timestamp: s.now().UTC(),
	})
}
