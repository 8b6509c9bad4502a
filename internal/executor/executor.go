package executor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExecutionRequest represents a request to execute a code file's source.
// Language selects the sandbox; unsupported values fail with an
// unsupportedLanguageError before any container is touched.
type ExecutionRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ExecutionResult represents the output and status of the code execution.
type ExecutionResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Executor represents the core interface for running code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}

// errUnsupportedLanguage is the sentinel behind UnsupportedLanguage errors.
var errUnsupportedLanguage = errors.New("unsupported language")

// UnsupportedLanguage reports that no sandbox exists for the given language.
func UnsupportedLanguage(language string) error {
	return fmt.Errorf("executor: %w: %q", errUnsupportedLanguage, language)
}

// IsUnsupportedLanguage reports whether err came from UnsupportedLanguage.
func IsUnsupportedLanguage(err error) bool {
	return errors.Is(err, errUnsupportedLanguage)
}
