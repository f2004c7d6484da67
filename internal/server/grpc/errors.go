package grpc

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// toStatus converts a service error into a gRPC status carrying the error
// kind in an ErrorInfo detail. Credential and lock failures get fixed
// messages; internal failures are never described.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	kind := common.KindOf(err)
	code, msg := codes.Internal, "internal error"

	switch kind {
	case common.KindNotFound:
		code, msg = codes.NotFound, err.Error()
	case common.KindInvalidCredential:
		code, msg = codes.Unauthenticated, "login failed"
	case common.KindAccountLocked:
		code, msg = codes.PermissionDenied, "account is locked"
	case common.KindUnauthenticated:
		code, msg = codes.Unauthenticated, "authentication required"
	case common.KindExpired:
		code, msg = codes.Unauthenticated, "session expired"
	case common.KindForbidden:
		code, msg = codes.PermissionDenied, "permission denied"
	case common.KindConflict:
		code, msg = codes.AlreadyExists, err.Error()
	case common.KindAlreadyLocked, common.KindNotLocked, common.KindRootProtected:
		code, msg = codes.FailedPrecondition, err.Error()
	case common.KindInvalidRole, common.KindValidation:
		code, msg = codes.InvalidArgument, err.Error()
	case common.KindRateLimited:
		code, msg = codes.ResourceExhausted, "too many requests"
	case common.KindTransient:
		code, msg = codes.Unavailable, "service temporarily unavailable"
	}

	st := status.New(code, msg)
	if withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(kind),
		Domain: common.ErrorDomain,
	}); derr == nil {
		st = withInfo
	}
	return st.Err()
}
