// Package repository declares the persistence interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite); tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/code-editor-backend/internal/model"
)

// CodeFileRepository persists code files.
//
// Every read or write that can mutate or reveal a specific file is scoped by
// (id, ownerID) in a single query. There is deliberately no GetByID without
// an owner: fetching by id alone and checking ownership in application code
// would leave a window where a bypassed check touches someone else's row.
type CodeFileRepository interface {
	Create(ctx context.Context, file *model.CodeFile) error
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.CodeFile, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.CodeFile, error)
	Update(ctx context.Context, file *model.CodeFile) error
	Delete(ctx context.Context, id, ownerID int64) error
}

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertGitHub(ctx context.Context, user *model.User) error
}
