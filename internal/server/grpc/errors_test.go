package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
		kind common.Kind
	}{
		{common.ErrorNotFound, codes.NotFound, common.KindNotFound},
		{common.ErrInvalidCredential, codes.Unauthenticated, common.KindInvalidCredential},
		{common.ErrAccountLocked, codes.PermissionDenied, common.KindAccountLocked},
		{common.ErrUnauthenticated, codes.Unauthenticated, common.KindUnauthenticated},
		{common.ErrSessionExpired, codes.Unauthenticated, common.KindExpired},
		{common.ErrForbidden, codes.PermissionDenied, common.KindForbidden},
		{common.ErrConflict, codes.AlreadyExists, common.KindConflict},
		{common.ErrAlreadyLocked, codes.FailedPrecondition, common.KindAlreadyLocked},
		{common.ErrNotLocked, codes.FailedPrecondition, common.KindNotLocked},
		{common.ErrRootProtected, codes.FailedPrecondition, common.KindRootProtected},
		{common.ErrInvalidRole, codes.InvalidArgument, common.KindInvalidRole},
		{common.ErrValidation, codes.InvalidArgument, common.KindValidation},
		{common.ErrRateLimited, codes.ResourceExhausted, common.KindRateLimited},
		{fmt.Errorf("op: %w: %w", common.ErrTransient, errors.New("dial tcp")), codes.Unavailable, common.KindTransient},
		{errors.New("something odd"), codes.Internal, common.KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := toStatus(tt.err)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.kind, api.ErrorKind(err))
		})
	}
}

func TestToStatus_MessagesRevealNothing(t *testing.T) {
	st, _ := status.FromError(toStatus(fmt.Errorf("user alice: %w", common.ErrInvalidCredential)))
	assert.Equal(t, "login failed", st.Message())

	st, _ = status.FromError(toStatus(errors.New("pq: relation users does not exist")))
	assert.Equal(t, "internal error", st.Message())

	st, _ = status.FromError(toStatus(fmt.Errorf("db: %w: %w", common.ErrTransient, errors.New("10.0.0.5:5432 refused"))))
	assert.NotContains(t, st.Message(), "10.0.0.5")
}

func TestToStatus_PassesStatusThrough(t *testing.T) {
	in := status.Error(codes.Canceled, "client went away")
	assert.Equal(t, in, toStatus(in))
	assert.Nil(t, toStatus(nil))
}

func TestErrorKind_PlainError(t *testing.T) {
	assert.Equal(t, common.KindInternal, api.ErrorKind(errors.New("x")))
	assert.Equal(t, common.KindInternal, api.ErrorKind(status.Error(codes.NotFound, "no details")))
}
