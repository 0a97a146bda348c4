package database

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bizcore/internal/tenancy"
)

// NewPool creates a connection pool whose checkout and release hooks keep
// the session tenant parameter in sync with the acquiring unit of work.
//
// BeforeAcquire rebinds on every checkout because connections are shared
// across requests over time; a connection recycled mid-pool may still carry
// the previous tenant's binding. If the bind command fails the connection is
// refused, so business queries can never run on an unbound session.
// AfterRelease resets the parameter before the connection becomes reusable;
// if the reset fails the connection is destroyed rather than returned.
func NewPool(ctx context.Context, dsn string, binder tenancy.Binder) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	config.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := binder.BindFromContext(ctx, conn); err != nil {
			log.Printf("ERROR: refusing connection, tenant bind failed: %v", err)
			return false
		}
		return true
	}
	config.AfterRelease = func(conn *pgx.Conn) bool {
		// The request context may already be cancelled; the unbind must
		// still run before the connection is reusable.
		if err := binder.Reset(context.Background(), conn); err != nil {
			log.Printf("ERROR: session unbind failed, destroying connection: %v", err)
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Database connected successfully")

	return pool, nil
}
