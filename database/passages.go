// Package database provides the pgvector-backed passage store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
	"github.com/siherrmann/retriever/store"
)

// PassagesDBHandler implements store.VectorStore on top of Postgres with the
// pgvector extension. All collections live in a single passages table keyed
// by collection name; the collections table pins each collection's dimension.
type PassagesDBHandler struct {
	db *helper.Database
}

// NewPassagesDBHandler creates a new passages database handler.
// It initializes the database extensions, loads passage-related SQL functions
// and creates the tables. If force is true, it will reload the SQL functions
// even if they already exist.
func NewPassagesDBHandler(db *helper.Database, force bool) (*PassagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	passagesDbHandler := &PassagesDBHandler{
		db: db,
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("init database extensions", err)
	}

	err = loadSql.LoadPassagesSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load passages sql", err)
	}

	err = passagesDbHandler.CreateTables()
	if err != nil {
		return nil, helper.NewError("create tables", err)
	}

	db.Logger.Info("Initialized PassagesDBHandler")

	return passagesDbHandler, nil
}

// CreateTables creates the collections and passages tables in the database.
// If the tables already exist, it does not create them again.
func (h *PassagesDBHandler) CreateTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_passage_store();`)
	if err != nil {
		return helper.NewError("init passage store", err)
	}

	h.db.Logger.Info("Checked/created tables collections and passages")

	return nil
}

// EnsureCollection creates the collection with the given dimension if it does
// not exist yet. An existing collection with a different dimension is an error.
func (h *PassagesDBHandler) EnsureCollection(ctx context.Context, name string, dimension int) error {
	var storedDimension int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM ensure_collection($1, $2)`,
		name,
		dimension,
	).Scan(&storedDimension)
	if err != nil {
		return helper.NewError("ensure collection", err)
	}

	if storedDimension != dimension {
		return helper.NewError(
			"ensure collection",
			fmt.Errorf("collection %v has dimension %v, want %v: %w", name, storedDimension, dimension, store.ErrDimensionMismatch),
		)
	}
	return nil
}

// Upsert inserts passages with their vectors in a single transaction.
// Every vector must match the collection dimension.
func (h *PassagesDBHandler) Upsert(ctx context.Context, collection string, passages []model.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return helper.NewError("upsert", fmt.Errorf("got %v passages but %v vectors", len(passages), len(vectors)))
	}

	dimension, err := h.collectionDimension(ctx, collection)
	if err != nil {
		return err
	}
	for i, vector := range vectors {
		if len(vector) != dimension {
			return helper.NewError(
				"upsert",
				fmt.Errorf("vector %v has length %v, collection %v expects %v: %w", i, len(vector), collection, dimension, store.ErrDimensionMismatch),
			)
		}
	}

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for i, passage := range passages {
		var insertedID uuid.UUID
		err := tx.QueryRowContext(
			ctx,
			`SELECT * FROM insert_passage($1, $2, $3, $4, $5, $6, $7, $8)`,
			passage.ID,
			collection,
			passage.DocumentID,
			passage.ChunkIndex,
			passage.Text,
			passage.Source,
			pq.Array(passage.Keywords),
			pgvector.NewVector(vectors[i]),
		).Scan(&insertedID)
		if err != nil {
			return helper.NewError("insert passage", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}
	return nil
}

// DeleteByDocument removes all passages of the given document from a collection
func (h *PassagesDBHandler) DeleteByDocument(ctx context.Context, collection string, documentID uuid.UUID) error {
	_, err := h.collectionDimension(ctx, collection)
	if err != nil {
		return err
	}

	var deleted int64
	err = h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM delete_passages_by_document($1, $2)`,
		collection,
		documentID,
	).Scan(&deleted)
	if err != nil {
		return helper.NewError("delete passages by document", err)
	}
	return nil
}

// Search returns the limit nearest passages by cosine similarity
func (h *PassagesDBHandler) Search(ctx context.Context, collection string, vector []float32, limit int) ([]model.SearchHit, error) {
	dimension, err := h.collectionDimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dimension {
		return nil, helper.NewError(
			"search",
			fmt.Errorf("query vector has length %v, collection %v expects %v: %w", len(vector), collection, dimension, store.ErrDimensionMismatch),
		)
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_passages_by_similarity($1, $2, $3)`,
		collection,
		pgvector.NewVector(vector),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("select passages by similarity", err)
	}
	defer rows.Close()

	hits := []model.SearchHit{}
	for rows.Next() {
		hit := model.SearchHit{}
		err := rows.Scan(
			&hit.Passage.ID,
			&hit.Passage.DocumentID,
			&hit.Passage.ChunkIndex,
			&hit.Passage.Text,
			&hit.Passage.Source,
			pq.Array(&hit.Passage.Keywords),
			&hit.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}
	return hits, nil
}

// Scroll pages through a collection in insertion order
func (h *PassagesDBHandler) Scroll(ctx context.Context, collection string, offset int, limit int) ([]model.Passage, int, error) {
	_, err := h.collectionDimension(ctx, collection)
	if err != nil {
		return nil, store.ScrollDone, err
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM scroll_passages($1, $2, $3)`,
		collection,
		offset,
		limit,
	)
	if err != nil {
		return nil, store.ScrollDone, helper.NewError("scroll passages", err)
	}
	defer rows.Close()

	passages := []model.Passage{}
	for rows.Next() {
		passage := model.Passage{}
		err := rows.Scan(
			&passage.ID,
			&passage.DocumentID,
			&passage.ChunkIndex,
			&passage.Text,
			&passage.Source,
			pq.Array(&passage.Keywords),
		)
		if err != nil {
			return nil, store.ScrollDone, helper.NewError("scan", err)
		}
		passages = append(passages, passage)
	}
	if err := rows.Err(); err != nil {
		return nil, store.ScrollDone, helper.NewError("rows", err)
	}

	next := store.ScrollDone
	if len(passages) == limit {
		next = offset + limit
	}
	return passages, next, nil
}

// CountByDocument returns how many passages a document has in a collection
func (h *PassagesDBHandler) CountByDocument(ctx context.Context, collection string, documentID uuid.UUID) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM count_passages_by_document($1, $2)`,
		collection,
		documentID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count passages by document", err)
	}
	return count, nil
}

func (h *PassagesDBHandler) collectionDimension(ctx context.Context, collection string) (int, error) {
	var dimension sql.NullInt64
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_collection_dimension($1)`,
		collection,
	).Scan(&dimension)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, helper.NewError("select collection dimension", err)
	}
	if errors.Is(err, sql.ErrNoRows) || !dimension.Valid {
		return 0, helper.NewError("select collection dimension", fmt.Errorf("collection %v: %w", collection, store.ErrCollectionNotFound))
	}
	return int(dimension.Int64), nil
}
