package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error codes
const (
	// Argument errors (ARG-001 to ARG-099)
	ErrCodeInvalidTag           ErrorCode = "ARG-001"
	ErrCodeInvalidFolder        ErrorCode = "ARG-002"
	ErrCodeInvalidPhase         ErrorCode = "ARG-003"
	ErrCodeInvalidCallback      ErrorCode = "ARG-004"
	ErrCodeInvalidEnv           ErrorCode = "ARG-005"
	ErrCodeMissingWorkspacePath ErrorCode = "ARG-006"

	// Script errors (SCRIPT-001 to SCRIPT-099)
	ErrCodeScriptLocked    ErrorCode = "SCRIPT-001"
	ErrCodeShellAfterBuild ErrorCode = "SCRIPT-002"

	// Callback errors (CALLBACK-001 to CALLBACK-099)
	ErrCodeCallbackFailure ErrorCode = "CALLBACK-001"

	// Definition errors (DEF-001 to DEF-099)
	ErrCodeDefinitionNotFound ErrorCode = "DEF-001"
	ErrCodeDefinitionParse    ErrorCode = "DEF-002"
	ErrCodeDefinitionInvalid  ErrorCode = "DEF-003"

	// Policy errors (POLICY-001 to POLICY-099)
	ErrCodePolicyLoad      ErrorCode = "POLICY-001"
	ErrCodePolicyViolation ErrorCode = "POLICY-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileWriteFailed  ErrorCode = "IO-001"
	ErrCodeManifestMismatch ErrorCode = "IO-002"
)

// Kind groups error codes into the categories callers branch on.
type Kind string

const (
	KindUnknown         Kind = ""
	KindInvalidArgument Kind = "InvalidArgument"
	KindScriptLocked    Kind = "ScriptLocked"
	KindShellAfterBuild Kind = "ShellAfterBuild"
	KindCallbackFailure Kind = "CallbackFailure"
	KindDefinition      Kind = "Definition"
	KindPolicy          Kind = "Policy"
	KindIO              Kind = "IO"
)

// Kind returns the category of the code.
func (c ErrorCode) Kind() Kind {
	switch {
	case c == ErrCodeScriptLocked:
		return KindScriptLocked
	case c == ErrCodeShellAfterBuild:
		return KindShellAfterBuild
	case strings.HasPrefix(string(c), "ARG-"):
		return KindInvalidArgument
	case strings.HasPrefix(string(c), "CALLBACK-"):
		return KindCallbackFailure
	case strings.HasPrefix(string(c), "DEF-"):
		return KindDefinition
	case strings.HasPrefix(string(c), "POLICY-"):
		return KindPolicy
	case strings.HasPrefix(string(c), "IO-"):
		return KindIO
	default:
		return KindUnknown
	}
}

// Sentinel values for errors.Is checks. Matching is by code only.
var (
	ErrInvalidTag      = New(ErrCodeInvalidTag, "invalid tag")
	ErrInvalidFolder   = New(ErrCodeInvalidFolder, "invalid folder")
	ErrInvalidPhase    = New(ErrCodeInvalidPhase, "invalid phase")
	ErrInvalidCallback = New(ErrCodeInvalidCallback, "invalid callback")
	ErrInvalidEnv      = New(ErrCodeInvalidEnv, "invalid environment")
	ErrScriptLocked    = New(ErrCodeScriptLocked, "script is locked")
	ErrShellAfterBuild = New(ErrCodeShellAfterBuild, "shell command after container build or push")
	ErrCallbackFailure = New(ErrCodeCallbackFailure, "phase callback failed")
	ErrPolicyViolation = New(ErrCodePolicyViolation, "policy violation")
)

// PipelineError is an error with a code, suggestions, and documentation
type PipelineError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PipelineError with the same code.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new PipelineError
func New(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new PipelineError with a formatted message
func Newf(code ErrorCode, format string, args ...any) *PipelineError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new PipelineError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PipelineError) WithSuggestions(suggestions ...string) *PipelineError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *PipelineError) WithDocs(url string) *PipelineError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the outermost PipelineError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// KindOf returns the kind of the outermost PipelineError in err's chain.
func KindOf(err error) Kind {
	code, ok := CodeOf(err)
	if !ok {
		return KindUnknown
	}
	return code.Kind()
}

// HasKind reports whether any PipelineError in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if pe, ok := err.(*PipelineError); ok && pe.Code.Kind() == kind {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsInvalidArgument reports whether err is an argument error.
func IsInvalidArgument(err error) bool {
	return HasKind(err, KindInvalidArgument)
}

// IsCallbackFailure reports whether err came out of a phase callback.
func IsCallbackFailure(err error) bool {
	return HasKind(err, KindCallbackFailure)
}

// Common error constructors

// NewInvalidTagError reports a tag argument that is not a non-empty string
func NewInvalidTagError(index int) *PipelineError {
	return Newf(ErrCodeInvalidTag, "please add a valid tag (at index: %d)", index).
		WithSuggestion("Tags must be non-empty strings such as 'v1' or 'registry/app:v1'")
}

// NewInvalidFolderError reports an empty folder to copy
func NewInvalidFolderError() *PipelineError {
	return New(ErrCodeInvalidFolder, "folder to copy should be a valid relative path")
}

// NewInvalidPhaseError reports a missing phase in a stage
func NewInvalidPhaseError(index int) *PipelineError {
	return Newf(ErrCodeInvalidPhase, "please add a valid phase (at index: %d)", index)
}

// NewInvalidCallbackError reports a missing configuration or execution callback
func NewInvalidCallbackError(slot string) *PipelineError {
	return Newf(ErrCodeInvalidCallback, "%s should be a function", slot)
}

// NewInvalidEnvError reports an environment input that is not a mapping
func NewInvalidEnvError(index int, got any) *PipelineError {
	return Newf(ErrCodeInvalidEnv, "please pass a valid mapping (at index: %d, got %T)", index, got)
}

// NewShellAfterBuildError reports a shell command issued on a locked container
func NewShellAfterBuildError(command string) *PipelineError {
	return Newf(ErrCodeShellAfterBuild, "cannot run shell command after calling docker build or push: %q", command).
		WithSuggestion("Issue all shell commands before declaring the container build or push")
}

// NewCallbackFailureError wraps an error raised by a phase callback
func NewCallbackFailureError(phaseID, slot string, cause error) *PipelineError {
	return Wrap(ErrCodeCallbackFailure, fmt.Sprintf("phase %s: %s callback failed", phaseID, slot), cause)
}

// NewPolicyViolationError creates a policy violation error
func NewPolicyViolationError(violations []string) *PipelineError {
	return Newf(ErrCodePolicyViolation, "policy violation: %s", strings.Join(violations, "; ")).
		WithSuggestion("Review the container policy file passed with --policy")
}
