package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/code-editor-backend/internal/apperror"
	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/executor"
	"github.com/sakif/code-editor-backend/internal/model"
)

// mockCodeFileRepo is an in-memory CodeFileRepository. Service tests run
// against it instead of SQLite so they exercise only the business rules.
type mockCodeFileRepo struct {
	files  map[int64]*model.CodeFile
	nextID int64
	err    error // when set, every method fails with it
}

func newMockRepo() *mockCodeFileRepo {
	return &mockCodeFileRepo{files: make(map[int64]*model.CodeFile)}
}

func (m *mockCodeFileRepo) Create(_ context.Context, file *model.CodeFile) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	file.ID = m.nextID
	stored := *file
	m.files[file.ID] = &stored
	return nil
}

func (m *mockCodeFileRepo) GetByIDAndOwner(_ context.Context, id, ownerID int64) (*model.CodeFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.files[id]
	if !ok || f.OwnerID != ownerID {
		return nil, apperror.NotFound("Code file")
	}
	result := *f
	return &result, nil
}

func (m *mockCodeFileRepo) ListByOwner(_ context.Context, ownerID int64) ([]model.CodeFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make([]model.CodeFile, 0)
	for _, f := range m.files {
		if f.OwnerID == ownerID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockCodeFileRepo) Update(_ context.Context, file *model.CodeFile) error {
	if m.err != nil {
		return m.err
	}
	existing, ok := m.files[file.ID]
	if !ok || existing.OwnerID != file.OwnerID {
		return apperror.NotFound("Code file")
	}
	stored := *file
	m.files[file.ID] = &stored
	return nil
}

func (m *mockCodeFileRepo) Delete(_ context.Context, id, ownerID int64) error {
	if m.err != nil {
		return m.err
	}
	existing, ok := m.files[id]
	if !ok || existing.OwnerID != ownerID {
		return apperror.NotFound("Code file")
	}
	delete(m.files, id)
	return nil
}

// mockRunner records the request and returns a canned result.
type mockRunner struct {
	req executor.ExecutionRequest
	res *executor.ExecutionResult
	err error
}

func (m *mockRunner) Execute(_ context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.res, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T) (*CodeFileService, *mockCodeFileRepo) {
	t.Helper()
	repo := newMockRepo()
	svc := NewCodeFileService(repo, nil, testLogger())
	return svc, repo
}

func userIdentity(subject int64) auth.Identity {
	return auth.Identity{Subject: subject, Role: model.RoleUser}
}

func strptr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_Success(t *testing.T) {
	svc, _ := newTestService(t)

	file, err := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if file.ID == 0 {
		t.Error("Create() did not assign an id")
	}
	if file.OwnerID != 42 {
		t.Errorf("OwnerID = %d, want the token subject 42", file.OwnerID)
	}
	if file.Language != "python" || file.SourceCode != "print(1)" {
		t.Errorf("fields not stored as given: %+v", file)
	}
}

func TestCreate_AdminRoleAllowed(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), auth.Identity{Subject: 1, Role: model.RoleAdmin}, "go", "package main")
	if err != nil {
		t.Errorf("Create() with admin role: %v", err)
	}
}

func TestCreate_BadRoleForbiddenAndNothingPersisted(t *testing.T) {
	svc, repo := newTestService(t)

	for _, role := range []string{"", "guest", "moderator", "USER"} {
		_, err := svc.Create(context.Background(), auth.Identity{Subject: 42, Role: role}, "python", "print(1)")
		if !errors.Is(err, apperror.ErrForbidden) {
			t.Errorf("role %q: error = %v, want ErrForbidden", role, err)
		}
	}
	if len(repo.files) != 0 {
		t.Errorf("store has %d files after forbidden creates, want 0", len(repo.files))
	}
}

func TestCreate_ValidationCollectsAllFields(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Create(context.Background(), userIdentity(42), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatal("expected an *AppError")
	}
	if _, ok := appErr.Fields["language"]; !ok {
		t.Error("missing language field error")
	}
	if _, ok := appErr.Fields["source_code"]; !ok {
		t.Error("missing source_code field error")
	}
	if len(repo.files) != 0 {
		t.Error("validation failure must not touch the store")
	}
}

func TestCreate_LanguageTooLong(t *testing.T) {
	svc, _ := newTestService(t)

	long := make([]byte, MaxLanguageLength+1)
	for i := range long {
		long[i] = 'x'
	}

	_, err := svc.Create(context.Background(), userIdentity(42), string(long), "code")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCreate_ValidationRunsBeforeRoleCheck(t *testing.T) {
	// Invalid fields with an invalid role must report the validation
	// failure, matching the order the API has always used.
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), auth.Identity{Subject: 42, Role: "guest"}, "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation before ErrForbidden", err)
	}
}

// ---------------------------------------------------------------------------
// GetByID / ListOwned
// ---------------------------------------------------------------------------

func TestGetByID_OwnerScoping(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Same owner sees the record.
	found, err := svc.GetByID(context.Background(), 42, created.ID)
	if err != nil {
		t.Fatalf("GetByID() same owner: %v", err)
	}
	if found.Language != "python" || found.SourceCode != "print(1)" {
		t.Errorf("round trip mismatch: %+v", found)
	}

	// A different subject gets NotFound, indistinguishable from a missing id.
	_, errOther := svc.GetByID(context.Background(), 99, created.ID)
	_, errMissing := svc.GetByID(context.Background(), 99, 12345)
	if !errors.Is(errOther, apperror.ErrNotFound) || !errors.Is(errMissing, apperror.ErrNotFound) {
		t.Fatalf("cross-owner = %v, missing = %v; want ErrNotFound for both", errOther, errMissing)
	}
	if errOther.Error() != errMissing.Error() {
		t.Errorf("messages differ: %q vs %q", errOther, errMissing)
	}
}

func TestListOwned_OnlyCallersFiles(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Create(context.Background(), userIdentity(1), "python", "a")
	svc.Create(context.Background(), userIdentity(1), "go", "b")
	svc.Create(context.Background(), userIdentity(2), "ruby", "c")

	files, err := svc.ListOwned(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListOwned() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	for _, f := range files {
		if f.OwnerID != 1 {
			t.Errorf("file %d owned by %d leaked into owner 1's list", f.ID, f.OwnerID)
		}
	}
}

func TestListOwned_EmptyIsSuccess(t *testing.T) {
	svc, _ := newTestService(t)

	files, err := svc.ListOwned(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListOwned() error = %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Errorf("got %v, want empty slice", files)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	// Only language supplied — source code untouched.
	updated, err := svc.Update(context.Background(), 42, created.ID, strptr("go"), nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Language != "go" || updated.SourceCode != "print(1)" {
		t.Errorf("language-only update: %+v", updated)
	}

	// Only source supplied — language untouched.
	updated, err = svc.Update(context.Background(), 42, created.ID, nil, strptr("fmt.Println(2)"))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Language != "go" || updated.SourceCode != "fmt.Println(2)" {
		t.Errorf("source-only update: %+v", updated)
	}

	// Both supplied — both change.
	updated, err = svc.Update(context.Background(), 42, created.ID, strptr("ruby"), strptr("puts 3"))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Language != "ruby" || updated.SourceCode != "puts 3" {
		t.Errorf("both-field update: %+v", updated)
	}
}

func TestUpdate_ExplicitEmptyStringIsApplied(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	updated, err := svc.Update(context.Background(), 42, created.ID, nil, strptr(""))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.SourceCode != "" {
		t.Errorf("SourceCode = %q, want empty string to be applied", updated.SourceCode)
	}
	if updated.Language != "python" {
		t.Errorf("Language = %q, should be unchanged", updated.Language)
	}
}

func TestUpdate_CrossOwnerIsNotFound(t *testing.T) {
	svc, repo := newTestService(t)
	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	_, err := svc.Update(context.Background(), 99, created.ID, strptr("go"), nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() cross-owner: error = %v, want ErrNotFound", err)
	}
	if repo.files[created.ID].Language != "python" {
		t.Error("cross-owner update mutated the row")
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_ThenGetIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	if err := svc.Delete(context.Background(), 42, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), 42, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete: error = %v, want ErrNotFound", err)
	}
}

func TestDelete_CrossOwnerIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	if err := svc.Delete(context.Background(), 99, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() cross-owner: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByID(context.Background(), 42, created.ID); err != nil {
		t.Error("file should survive a cross-owner delete")
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_NoRunnerConfigured(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	_, err := svc.Run(context.Background(), 42, created.ID)
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("Run() without runner: error = %v, want ErrUnavailable", err)
	}
}

func TestRun_PassesLanguageAndSource(t *testing.T) {
	repo := newMockRepo()
	runner := &mockRunner{res: &executor.ExecutionResult{Stdout: "1\n", ExitCode: 0}}
	svc := NewCodeFileService(repo, runner, testLogger())

	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	result, err := svc.Run(context.Background(), 42, created.ID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "1\n" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
	if runner.req.Language != "python" || runner.req.Code != "print(1)" {
		t.Errorf("runner got %+v, want the file's language and source", runner.req)
	}
}

func TestRun_UnsupportedLanguage(t *testing.T) {
	repo := newMockRepo()
	runner := &mockRunner{err: executor.UnsupportedLanguage("brainfuck")}
	svc := NewCodeFileService(repo, runner, testLogger())

	created, _ := svc.Create(context.Background(), userIdentity(42), "brainfuck", "+"+"+")

	_, err := svc.Run(context.Background(), 42, created.ID)
	if !errors.Is(err, apperror.ErrUnprocessable) {
		t.Errorf("Run() unsupported language: error = %v, want ErrUnprocessable", err)
	}
}

func TestRun_CrossOwnerIsNotFound(t *testing.T) {
	repo := newMockRepo()
	runner := &mockRunner{res: &executor.ExecutionResult{}}
	svc := NewCodeFileService(repo, runner, testLogger())

	created, _ := svc.Create(context.Background(), userIdentity(42), "python", "print(1)")

	_, err := svc.Run(context.Background(), 99, created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Run() cross-owner: error = %v, want ErrNotFound", err)
	}
}
