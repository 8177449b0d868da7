package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or an unusable pipeline
	// definition
	UsageError = 2

	// DryRunFailed indicates a phase callback or argument error during the
	// dry run
	DryRunFailed = 3

	// PolicyViolation indicates the dry-run report broke the container policy
	PolicyViolation = 4

	// Interrupted indicates the run was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Coded errors are mapped by
// kind; uncoded errors fall back to the cobra usage messages.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code, ok := errors.CodeOf(err); ok {
		return fromCode(code)
	}

	errMsg := strings.ToLower(err.Error())
	for _, usage := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "required flag", "invalid argument", "accepts"} {
		if strings.Contains(errMsg, usage) {
			return UsageError
		}
	}

	return GeneralError
}

func fromCode(code errors.ErrorCode) int {
	switch code.Kind() {
	case errors.KindDefinition:
		return UsageError
	case errors.KindPolicy:
		if code == errors.ErrCodePolicyLoad {
			return UsageError
		}
		return PolicyViolation
	case errors.KindInvalidArgument, errors.KindCallbackFailure,
		errors.KindScriptLocked, errors.KindShellAfterBuild:
		return DryRunFailed
	default:
		return GeneralError
	}
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or pipeline definition)"
	case DryRunFailed:
		return "Dry run failed"
	case PolicyViolation:
		return "Policy violation"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
