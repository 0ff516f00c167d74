package valueobjects

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ValueObjectsSuite struct {
	suite.Suite
}

func TestValueObjectsSuite(t *testing.T) {
	suite.Run(t, new(ValueObjectsSuite))
}

func (s *ValueObjectsSuite) TestParseAmount() {
	s.Run("integers and fractions", func() {
		d, err := ParseAmount("1000")
		s.Require().NoError(err)
		s.True(d.Equal(decimal.NewFromInt(1000)))

		d, err = ParseAmount(" 99.5 ")
		s.Require().NoError(err)
		s.Equal("99.5", d.String())
	})

	s.Run("non-finite values are rejected", func() {
		for _, raw := range []string{"NaN", "Infinity", "-Infinity", "+inf"} {
			_, err := ParseAmount(raw)
			s.ErrorIs(err, ErrNonFiniteAmount, raw)
		}
	})

	s.Run("garbage is rejected", func() {
		_, err := ParseAmount("12yen")
		s.ErrorIs(err, ErrInvalidAmountFormat)
	})
}

func (s *ValueObjectsSuite) TestIsWholeAndYen() {
	s.True(IsWhole(decimal.NewFromInt(500)))
	s.False(IsWhole(decimal.RequireFromString("500.01")))
	s.Equal(int64(500), Yen(decimal.RequireFromString("500.99")))
	s.Equal(int64(-500), Yen(decimal.RequireFromString("-500.99")))
	s.Equal(int64(9223372036854775807), Yen(decimal.RequireFromString("1e30")))
}

func (s *ValueObjectsSuite) TestUserID() {
	_, err := ParseUserID("")
	s.ErrorIs(err, ErrEmptyID)

	id := MustParseUserID("user-1")
	s.Equal("user-1", id.String())
	s.False(id.IsEmpty())

	text, err := id.MarshalText()
	s.Require().NoError(err)

	var decoded UserID
	s.Require().NoError(decoded.UnmarshalText(text))
	s.Equal(id, decoded)
}

func (s *ValueObjectsSuite) TestCorrelationID() {
	s.False(NewCorrelationID().IsEmpty())
	s.NotEqual(NewCorrelationID(), NewCorrelationID())

	_, err := ParseCorrelationID("")
	s.ErrorIs(err, ErrEmptyID)
}
