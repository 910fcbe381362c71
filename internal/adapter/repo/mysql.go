package repo

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	domain "github.com/dtnguyen/shop-api/internal/entity"
)

const mysqlDupEntry = 1062

// translateErr normalizes driver faults into the domain taxonomy so the
// use cases never see a *mysql.MySQLError.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDupEntry {
		return fmt.Errorf("%w: duplicate field value", domain.ErrConflict)
	}
	return err
}

// JSON columns hold string slices (images, tags).
func marshalStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

func unmarshalStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return []string{}
	}
	return ss
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDec(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: !d.IsZero()}
}
