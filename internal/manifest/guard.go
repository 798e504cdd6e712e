package manifest

import (
	"errors"
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/tyemirov/forge/internal/engine"
)

const (
	guardExpressionEmptyMessageConstant     = "guard expression must not be empty"
	guardExpressionParseTemplateConstant    = "failed to parse guard expression %q: %w"
	guardExpressionEvaluateTemplateConstant = "failed to evaluate guard expression %q: %w"
	guardExpressionNonBooleanTemplate       = "guard expression %q did not produce a boolean"
	guardTargetParameterNameConstant        = "target"
	guardConfigurationParameterNameConstant = "configuration"
)

// ErrGuardExpressionEmpty indicates a blank guard expression.
var ErrGuardExpressionEmpty = errors.New(guardExpressionEmptyMessageConstant)

// ValidateGuardExpression parses the expression at configuration load time so
// malformed guards fail before any task action runs.
func ValidateGuardExpression(guardExpression string) error {
	if len(guardExpression) == 0 {
		return ErrGuardExpressionEmpty
	}
	if _, parseError := govaluate.NewEvaluableExpression(guardExpression); parseError != nil {
		return fmt.Errorf(guardExpressionParseTemplateConstant, guardExpression, parseError)
	}
	return nil
}

// EvaluateGuardExpression evaluates the expression against the provided
// parameters, requiring a boolean result.
func EvaluateGuardExpression(guardExpression string, guardParameters map[string]any) (bool, error) {
	parsedExpression, parseError := govaluate.NewEvaluableExpression(guardExpression)
	if parseError != nil {
		return false, fmt.Errorf(guardExpressionParseTemplateConstant, guardExpression, parseError)
	}

	evaluationResult, evaluationError := parsedExpression.Evaluate(guardParameters)
	if evaluationError != nil {
		return false, fmt.Errorf(guardExpressionEvaluateTemplateConstant, guardExpression, evaluationError)
	}

	booleanResult, isBoolean := evaluationResult.(bool)
	if !isBoolean {
		return false, fmt.Errorf(guardExpressionNonBooleanTemplate, guardExpression)
	}
	return booleanResult, nil
}

// GuardParameters exposes run-scoped state to guard expressions: the target
// name, the build configuration, and one boolean per detected capability.
func GuardParameters(runContext engine.RunContext) map[string]any {
	guardParameters := map[string]any{
		guardTargetParameterNameConstant:        runContext.Target,
		guardConfigurationParameterNameConstant: runContext.Configuration,
	}
	for capabilityName, capabilityPresent := range runContext.Capabilities {
		guardParameters[string(capabilityName)] = capabilityPresent
	}
	return guardParameters
}
