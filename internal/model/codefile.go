// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// CodeFile represents a source file saved by a user in the editor.
//
// The JSON field names are snake_case because that is what the editor
// frontend already consumes. owner_id is set once at creation from the
// token's subject claim and never changes afterwards — ownership does
// not transfer.
type CodeFile struct {
	ID         int64     `json:"id"          db:"id"`
	OwnerID    int64     `json:"owner_id"    db:"owner_id"`
	Language   string    `json:"language"    db:"language"`
	SourceCode string    `json:"source_code" db:"source_code"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}
