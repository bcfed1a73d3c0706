package repository

import (
	"context"
	"database/sql"
	"time"

	"valvewatch"
	"valvewatch/internal/repository/db"
)

type Authorization interface {
	Create(email, hash string) (int, error)
	GetByEmail(email string) (*valvewatch.User, error)
}

type SourceEventRepo interface {
	Append(ctx context.Context, e valvewatch.SourceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]valvewatch.SourceEvent, error)
}

type Repository struct {
	Auth         Authorization
	SourceEvents SourceEventRepo
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		Auth:         NewUserRepository(sqlDB),
		SourceEvents: NewSourceEventSQLite(sqlDB),
	}
}

// InitDB re-exports the sqlite bootstrap so main wires one package.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
