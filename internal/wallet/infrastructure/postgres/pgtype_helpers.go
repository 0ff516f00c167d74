package postgres

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func floatToNumeric(value float64) pgtype.Numeric {
	d := decimal.NewFromFloat(value).Round(1)
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

func numericToFloat(value pgtype.Numeric) (float64, error) {
	if !value.Valid {
		return 0, fmt.Errorf("numeric is NULL")
	}
	if value.NaN {
		return 0, fmt.Errorf("numeric is NaN")
	}
	if value.InfinityModifier != pgtype.Finite {
		return 0, fmt.Errorf("numeric is %s", value.InfinityModifier)
	}

	intVal := value.Int
	if intVal == nil {
		intVal = big.NewInt(0)
	}
	return decimal.NewFromBigInt(intVal, value.Exp).InexactFloat64(), nil
}

func textFromString(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

// jsonOrNull marshals v, mapping nil pointers to SQL NULL.
func jsonOrNull[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// jsonPtr unmarshals a nullable JSONB column.
func jsonPtr[T any](raw []byte) (*T, error) {
	if raw == nil {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
