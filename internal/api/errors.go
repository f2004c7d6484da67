package api

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// ErrorKind extracts the error kind the server attached to a status, or
// KindInternal when there is none.
func ErrorKind(err error) common.Kind {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return common.KindInternal
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == common.ErrorDomain {
			return common.Kind(info.GetReason())
		}
	}
	return common.KindInternal
}

// FromStatus converts a call error back into the matching sentinel from
// common, keeping the server message. Errors that are not gRPC statuses are
// returned unchanged.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %s", common.ErrorOf(ErrorKind(err)), st.Message())
}
