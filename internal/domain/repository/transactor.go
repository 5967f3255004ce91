package repository

import "context"

// Transactor runs fn inside a single database transaction. Repository calls made with
// the context handed to fn join that transaction; a nested call joins the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
