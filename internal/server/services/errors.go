package services

import (
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// storeErr passes domain errors through and marks everything else, store
// failures and deadlines included, as transient.
func storeErr(op string, err error) error {
	if err == nil || common.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrTransient, err)
}

func validatePage(page, perPage int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be >= 1", common.ErrValidation)
	}
	if perPage < 1 || perPage > MaxPerPage {
		return fmt.Errorf("%w: per_page must be within 1..%d", common.ErrValidation, MaxPerPage)
	}
	return nil
}

// MaxPerPage caps listing page sizes.
const MaxPerPage = 100
