package user

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetBanned(ctx context.Context, id int, banned bool) error
	SetVerified(ctx context.Context, id int, emailVerified, phoneVerified bool) error
}
