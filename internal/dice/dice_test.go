package dice_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/errors"
)

type DiceTestSuite struct {
	suite.Suite
}

func TestDiceSuite(t *testing.T) {
	suite.Run(t, new(DiceTestSuite))
}

func (s *DiceTestSuite) newRoller(values ...int) *dice.Roller {
	roller, err := dice.NewRoller(&dice.RollerConfig{
		Provider: dice.NewScriptedProvider(values...),
	})
	s.Require().NoError(err)
	return roller
}

func (s *DiceTestSuite) TestNewRollerValidation() {
	_, err := dice.NewRoller(&dice.RollerConfig{})
	s.Assert().True(errors.IsBadInput(err))

	_, err = dice.NewRoller(nil)
	s.Assert().True(errors.IsBadInput(err))
}

func (s *DiceTestSuite) TestSimpleRoll() {
	roller := s.newRoller(3, 5)

	result, err := roller.RollNotation("2d6")
	s.Require().NoError(err)

	s.Assert().Equal("2d6", result.Notation)
	s.Assert().Equal([]int{3, 5}, result.Rolls)
	s.Assert().Nil(result.Kept)
	s.Assert().Equal(0, result.Modifier)
	s.Assert().Equal(8, result.Total)
}

func (s *DiceTestSuite) TestModifiers() {
	testCases := []struct {
		name     string
		notation string
		values   []int
		total    int
		modifier int
	}{
		{"positive modifier", "1d8+3", []int{5}, 8, 3},
		{"negative modifier", "1d8-2", []int{5}, 3, -2},
		{"stacked modifiers", "1d4+2+1", []int{3}, 6, 3},
		{"nested dice terms", "1d8+2d4+1", []int{6, 2, 3}, 12, 1},
		{"subtracted dice term", "1d20-1d4", []int{15, 2}, 13, 0},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			roller := s.newRoller(tc.values...)
			result, err := roller.RollNotation(tc.notation)
			s.Require().NoError(err)
			s.Assert().Equal(tc.total, result.Total)
			s.Assert().Equal(tc.modifier, result.Modifier)
		})
	}
}

func (s *DiceTestSuite) TestKeepHighest() {
	roller := s.newRoller(7, 18)

	result, err := roller.RollNotation("2d20kh1")
	s.Require().NoError(err)

	s.Assert().Equal([]int{7, 18}, result.Rolls)
	s.Assert().Equal([]int{18}, result.Kept)
	s.Assert().Equal(18, result.Total)
}

func (s *DiceTestSuite) TestKeepLowest() {
	roller := s.newRoller(7, 18)

	result, err := roller.RollNotation("2d20kl1")
	s.Require().NoError(err)

	s.Assert().Equal([]int{7}, result.Kept)
	s.Assert().Equal(7, result.Total)
}

func (s *DiceTestSuite) TestKeepWithModifier() {
	roller := s.newRoller(4, 9, 2)

	result, err := roller.RollNotation("2d6kh1+1d4+5")
	s.Require().NoError(err)

	s.Assert().Equal([]int{4, 9, 2}, result.Rolls)
	s.Assert().Equal([]int{9}, result.Kept)
	s.Assert().Equal(5, result.Modifier)
	s.Assert().Equal(16, result.Total)
}

func (s *DiceTestSuite) TestBadNotation() {
	roller := s.newRoller()

	badInputs := []string{
		"",
		"abc",
		"d20",
		"2d",
		"2d20kh",
		"2d20kh3", // keep more than rolled
		"0d6",
		"1d0",
		"1001d6",
		"1d1001",
		"2d6++3",
		"2d6+",
	}

	for _, notation := range badInputs {
		s.Run(notation, func() {
			_, err := roller.RollNotation(notation)
			s.Require().Error(err)
			s.Assert().True(errors.IsBadInput(err))
		})
	}
}

func (s *DiceTestSuite) TestParseRoundTrip() {
	notations := []string{"2d6", "1d20+5", "2d20kh1+3", "4d6kl3-1", "1d8+2d4+1"}

	for _, notation := range notations {
		s.Run(notation, func() {
			canonical, err := dice.Parse(notation)
			s.Require().NoError(err)
			s.Assert().Equal(notation, canonical)

			// Canonical form must survive its own parse
			again, err := dice.Parse(canonical)
			s.Require().NoError(err)
			s.Assert().Equal(canonical, again)
		})
	}
}

func (s *DiceTestSuite) TestParseNormalizes() {
	canonical, err := dice.Parse(" 2D6 + 3 ")
	s.Require().NoError(err)
	s.Assert().Equal("2d6+3", canonical)
}

func (s *DiceTestSuite) TestSeededDeterminism() {
	rollerA, err := dice.NewRoller(&dice.RollerConfig{Provider: dice.NewSeededProvider(42)})
	s.Require().NoError(err)
	rollerB, err := dice.NewRoller(&dice.RollerConfig{Provider: dice.NewSeededProvider(42)})
	s.Require().NoError(err)

	for i := 0; i < 20; i++ {
		a, err := rollerA.RollNotation("4d6kh3+2")
		s.Require().NoError(err)
		b, err := rollerB.RollNotation("4d6kh3+2")
		s.Require().NoError(err)
		s.Assert().Equal(a, b)
	}
}

func (s *DiceTestSuite) TestCryptoProviderBounds() {
	provider := dice.NewCryptoProvider()

	rolls := provider.Roll(100, 6)
	s.Require().Len(rolls, 100)
	for _, v := range rolls {
		s.Assert().GreaterOrEqual(v, 1)
		s.Assert().LessOrEqual(v, 6)
	}
}
