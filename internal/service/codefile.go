// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// The service receives repository interfaces, not concrete types, so tests
// inject in-memory mocks and the HTTP layer never touches SQL. Every method
// takes the caller's identity (or owner id) explicitly — there is no ambient
// "current user" anywhere below the auth middleware.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/code-editor-backend/internal/apperror"
	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/executor"
	"github.com/sakif/code-editor-backend/internal/model"
	"github.com/sakif/code-editor-backend/internal/repository"
)

// MaxLanguageLength bounds the free-text language field on creation.
const MaxLanguageLength = 255

// CodeFileService handles business logic for user-owned code files.
//
// Owner scoping is the one rule every method enforces: a caller can only
// ever see or touch rows whose owner_id matches their token subject. The
// repository queries carry that scoping atomically; this layer never fetches
// by bare id and checks ownership afterwards.
type CodeFileService struct {
	repo   repository.CodeFileRepository
	runner executor.Executor // nil when the Docker runner is disabled
	logger *slog.Logger
}

// NewCodeFileService creates a CodeFileService. runner may be nil; Run then
// reports the feature as unavailable instead of failing at startup.
func NewCodeFileService(repo repository.CodeFileRepository, runner executor.Executor, logger *slog.Logger) *CodeFileService {
	return &CodeFileService{
		repo:   repo,
		runner: runner,
		logger: logger,
	}
}

// ListOwned returns every code file belonging to the caller. An empty result
// is a success with an empty list, not an error.
func (s *CodeFileService) ListOwned(ctx context.Context, ownerID int64) ([]model.CodeFile, error) {
	files, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list code files",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing code files: %w", err)
	}
	return files, nil
}

// GetByID returns one code file, scoped to the caller. A file that exists
// under another owner produces the same NotFound as a missing id.
func (s *CodeFileService) GetByID(ctx context.Context, ownerID, id int64) (*model.CodeFile, error) {
	file, err := s.repo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		// NotFound is a normal outcome here, not a failure worth logging.
		return nil, err
	}
	return file, nil
}

// Create validates and saves a new code file owned by the caller.
//
// Only accounts with role "user" or "admin" may create files; any other
// role (or an absent role claim) is rejected before the store is touched.
// Validation reports every failing field at once, the way the API always
// has, rather than stopping at the first.
func (s *CodeFileService) Create(ctx context.Context, identity auth.Identity, language, sourceCode string) (*model.CodeFile, error) {
	fieldErrors := map[string][]string{}
	if language == "" {
		fieldErrors["language"] = append(fieldErrors["language"], "The language field is required.")
	}
	if len(language) > MaxLanguageLength {
		fieldErrors["language"] = append(fieldErrors["language"],
			fmt.Sprintf("The language field must not be greater than %d characters.", MaxLanguageLength))
	}
	if sourceCode == "" {
		fieldErrors["source_code"] = append(fieldErrors["source_code"], "The source code field is required.")
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.ValidationErrors(fieldErrors)
	}

	if identity.Role != model.RoleUser && identity.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("Unauthorized")
	}

	file := &model.CodeFile{
		OwnerID:    identity.Subject,
		Language:   language,
		SourceCode: sourceCode,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		s.logger.Error("failed to create code file",
			slog.Int64("ownerID", identity.Subject),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating code file: %w", err)
	}

	s.logger.Info("code file created",
		slog.Int64("id", file.ID),
		slog.Int64("ownerID", file.OwnerID),
		slog.String("language", file.Language),
	)

	return file, nil
}

// Update applies a partial update to one of the caller's code files.
//
// language and sourceCode are pointers so "field absent from the request"
// and "field explicitly set to empty string" stay distinguishable: a nil
// pointer leaves the stored value unchanged, a non-nil pointer is applied
// even when it points at "".
func (s *CodeFileService) Update(ctx context.Context, ownerID, id int64, language, sourceCode *string) (*model.CodeFile, error) {
	file, err := s.repo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if language != nil {
		file.Language = *language
	}
	if sourceCode != nil {
		file.SourceCode = *sourceCode
	}

	if err := s.repo.Update(ctx, file); err != nil {
		s.logger.Error("failed to update code file",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating code file: %w", err)
	}

	s.logger.Info("code file updated",
		slog.Int64("id", file.ID),
		slog.Int64("ownerID", file.OwnerID),
	)

	return file, nil
}

// Delete removes one of the caller's code files. Hard delete.
func (s *CodeFileService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info("code file deleted",
		slog.Int64("id", id),
		slog.Int64("ownerID", ownerID),
	)
	return nil
}

// Run executes one of the caller's code files in the sandbox and returns its
// output. The lookup uses the same owner scoping (and the same NotFound) as
// GetByID, so /run leaks no more existence information than /codefiles/{id}.
func (s *CodeFileService) Run(ctx context.Context, ownerID, id int64) (*executor.ExecutionResult, error) {
	if s.runner == nil {
		return nil, apperror.Unavailable("Code runner is not available")
	}

	file, err := s.repo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	result, err := s.runner.Execute(ctx, executor.ExecutionRequest{
		Language: file.Language,
		Code:     file.SourceCode,
	})
	if err != nil {
		if executor.IsUnsupportedLanguage(err) {
			return nil, apperror.Unprocessable("language",
				fmt.Sprintf("Running %q files is not supported.", file.Language))
		}
		s.logger.Error("code execution failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("running code file: %w", err)
	}

	s.logger.Info("code file executed",
		slog.Int64("id", id),
		slog.Int("exitCode", result.ExitCode),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}
