package api

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/surveyflow/internal/types"
)

// Error mapping for every service method:
// Missing surveys and rules map to NOT_FOUND.
// Authoring and request validation errors map to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.
// Anything else is a storage failure and maps to UNAVAILABLE.

var notFound = []error{
	types.ErrSurveyNotFound,
	types.ErrRuleNotFound,
}

var invalidArgument = []error{
	types.ErrRuleNotOnQuestion,
	types.ErrQuestionNotInSurvey,
	types.ErrSourceQuestionNotInSurvey,
	types.ErrTargetQuestionRequired,
	types.ErrTargetQuestionNotInSurvey,
	types.ErrUnexpectedTargetQuestion,
	types.ErrConditionValueRequired,
	types.ErrUnexpectedConditionValue,
	types.ErrConditionValueTooLong,
	types.ErrNegativePriority,
	types.ErrInvalidOperator,
	types.ErrInvalidAction,
	types.ErrDuplicateQuestion,
	types.ErrDuplicateOrder,
	types.ErrDuplicateRule,
	types.ErrTooManyQuestions,
	types.ErrTooManyRules,
	types.ErrReorderMismatch,
}

// statusError converts a store or validation error into a gRPC status.
// Errors that already carry a status pass through unchanged.
func statusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return status.Error(codes.NotFound, err.Error())
		}
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Unavailable, err.Error())
}

func invalidArgumentf(format string, args ...any) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}
