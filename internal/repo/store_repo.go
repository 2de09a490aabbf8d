package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store is a brand store outlet
type Store struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// StoreRepo defines the interface for store repository operations
type StoreRepo interface {
	Create(ctx context.Context, s Store) (int64, error)
	List(ctx context.Context) ([]Store, error)
	GetByID(ctx context.Context, id int64) (Store, error)
}

type storeRepo struct {
	db *sqlx.DB
}

// NewStoreRepo creates a new StoreRepo instance
func NewStoreRepo(db *sqlx.DB) StoreRepo {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, s Store) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if s.ID > 0 {
		res, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO stores (id, name) VALUES (?, ?)`), s.ID, s.Name)
	} else {
		res, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO stores (name) VALUES (?)`), s.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("insert store: %w", err)
	}
	return res.LastInsertId()
}

func (r *storeRepo) List(ctx context.Context) ([]Store, error) {
	stores := []Store{}
	if err := r.db.SelectContext(ctx, &stores, `SELECT id, name FROM stores ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (r *storeRepo) GetByID(ctx context.Context, id int64) (Store, error) {
	var s Store
	if err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT id, name FROM stores WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Store{}, fmt.Errorf("store %w", ErrNotFound)
		}
		return Store{}, fmt.Errorf("failed to query store: %w", err)
	}
	return s, nil
}
