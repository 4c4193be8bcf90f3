package annualleave

import (
	"errors"

	annualleaveerrors "github.com/kikoon-ek/hr-erp/internal/annualleave/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapLedgerError converts driver-level failures into domain errors. The
// unique key on annual_leave_grants backs the accrual idempotency invariant,
// so a 23505 on it means the grant already exists.
func mapLedgerError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "uq_leave_grant_key" {
			return annualleaveerrors.ErrDuplicateGrant
		}
	}

	return err
}
