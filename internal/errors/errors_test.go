package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tta-core/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     errors.CodeNotFound,
			message:  "entity not found",
			expected: "NOT_FOUND: entity not found",
		},
		{
			name:     "bad input error",
			code:     errors.CodeBadInput,
			message:  "invalid dice notation",
			expected: "BAD_INPUT: invalid dice notation",
		},
		{
			name:     "insufficient resource error",
			code:     errors.CodeInsufficientResource,
			message:  "no spell slots remaining",
			expected: "INSUFFICIENT_RESOURCE: no spell slots remaining",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Assert().Equal(tc.expected, err.Error())
			s.Assert().Equal(tc.code, err.Code)
			s.Assert().Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestErrorWithMeta() {
	err := errors.NotFound("entity not found").
		WithMeta("entity_id", "ent_123").
		WithMeta("universe_id", "uni_456")

	s.Assert().Equal("ent_123", err.Meta["entity_id"])
	s.Assert().Equal("uni_456", err.Meta["universe_id"])
}

func (s *ErrorsTestSuite) TestWrapPreservesCode() {
	base := errors.InsufficientResource("usage die depleted")
	wrapped := errors.Wrap(base, "failed to light torch")

	s.Assert().Equal(errors.CodeInsufficientResource, wrapped.Code)
	s.Assert().Equal("failed to light torch", wrapped.Message)
	s.Assert().ErrorIs(wrapped, base)
}

func (s *ErrorsTestSuite) TestWrapPlainErrorDefaultsToRepoError() {
	wrapped := errors.Wrap(fmt.Errorf("connection refused"), "failed to save entity")

	s.Assert().Equal(errors.CodeRepoError, wrapped.Code)
	s.Assert().True(errors.IsRepoError(wrapped))
}

func (s *ErrorsTestSuite) TestWrapNil() {
	s.Assert().Nil(errors.Wrap(nil, "should be nil"))
	s.Assert().Nil(errors.WrapWithCode(nil, errors.CodeTimeout, "should be nil"))
}

func (s *ErrorsTestSuite) TestWrapWithCode() {
	base := fmt.Errorf("context deadline exceeded")
	err := errors.WrapWithCode(base, errors.CodeTimeout, "llm call timed out")

	s.Assert().Equal(errors.CodeTimeout, err.Code)
	s.Assert().True(errors.IsTimeout(err))
	s.Assert().ErrorIs(err, base)
}

func (s *ErrorsTestSuite) TestTypeCheckers() {
	testCases := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"bad input", errors.BadInput("bad"), errors.IsBadInput},
		{"not found", errors.NotFound("missing"), errors.IsNotFound},
		{"insufficient resource", errors.InsufficientResource("empty"), errors.IsInsufficientResource},
		{"invalid target", errors.InvalidTarget("wrong target"), errors.IsInvalidTarget},
		{"rule violation", errors.RuleViolation("no"), errors.IsRuleViolation},
		{"conflict state", errors.ConflictState("stale"), errors.IsConflictState},
		{"timeout", errors.Timeout("too slow"), errors.IsTimeout},
		{"repo error", errors.RepoError("disk"), errors.IsRepoError},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Assert().True(tc.checker(tc.err))
		})
	}
}

func (s *ErrorsTestSuite) TestGetCode() {
	s.Assert().Equal(errors.CodeOK, errors.GetCode(nil))
	s.Assert().Equal(errors.CodeNotFound, errors.GetCode(errors.NotFound("missing")))
	s.Assert().Equal(errors.CodeRepoError, errors.GetCode(fmt.Errorf("plain error")))
}

func (s *ErrorsTestSuite) TestIsTurnRecoverable() {
	s.Assert().True(errors.IsTurnRecoverable(errors.BadInput("bad")))
	s.Assert().True(errors.IsTurnRecoverable(errors.NotFound("missing")))
	s.Assert().True(errors.IsTurnRecoverable(errors.InsufficientResource("empty")))
	s.Assert().True(errors.IsTurnRecoverable(errors.InvalidTarget("wrong")))
	s.Assert().True(errors.IsTurnRecoverable(errors.RuleViolation("no")))

	s.Assert().False(errors.IsTurnRecoverable(errors.Timeout("slow")))
	s.Assert().False(errors.IsTurnRecoverable(errors.ConflictState("stale")))
	s.Assert().False(errors.IsTurnRecoverable(errors.RepoError("disk")))
	s.Assert().False(errors.IsTurnRecoverable(fmt.Errorf("plain")))
}
