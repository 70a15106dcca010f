package postgres

import (
	"github.com/jackc/pgx/v5/pgtype"

	"stockflow/internal/core/types"
)

// Numeric converts money to its exact NUMERIC representation.
// COPY uses the binary protocol, which has no encoder for decimal.Decimal.
func Numeric(m types.Money) pgtype.Numeric {
	return pgtype.Numeric{Int: m.Coefficient(), Exp: m.Exponent(), Valid: true}
}
