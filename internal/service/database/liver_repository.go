package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/liver-streams-go/internal/domain"
)

const createLiversTable = `
	CREATE TABLE IF NOT EXISTS nijisanji_livers (
		talent_id  TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		image      TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// LiverRepository stores the nijisanji talent directory. It satisfies
// source.LiverDirectory.
type LiverRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewLiverRepository(postgres *PostgresService, logger *zap.Logger) *LiverRepository {
	return &LiverRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (r *LiverRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLiversTable); err != nil {
		return fmt.Errorf("failed to create nijisanji_livers: %w", err)
	}
	return nil
}

func (r *LiverRepository) LiverMap(ctx context.Context) (map[string]domain.LiverInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT talent_id, name, image FROM nijisanji_livers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query livers: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.LiverInfo)
	for rows.Next() {
		var info domain.LiverInfo
		if err := rows.Scan(&info.TalentID, &info.Name, &info.Image); err != nil {
			return nil, fmt.Errorf("failed to scan liver: %w", err)
		}
		result[info.TalentID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate livers: %w", err)
	}

	r.logger.Debug("Loaded liver directory", zap.Int("count", len(result)))
	return result, nil
}

// FindByID returns nil, nil when the id is unknown.
func (r *LiverRepository) FindByID(ctx context.Context, talentID string) (*domain.LiverInfo, error) {
	var info domain.LiverInfo
	err := r.db.QueryRowContext(ctx,
		`SELECT talent_id, name, image FROM nijisanji_livers WHERE talent_id = $1`,
		talentID,
	).Scan(&info.TalentID, &info.Name, &info.Image)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query liver %s: %w", talentID, err)
	}
	return &info, nil
}

// Upsert writes all entries in one transaction and returns how many rows
// were written.
func (r *LiverRepository) Upsert(ctx context.Context, livers []domain.LiverInfo) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nijisanji_livers (talent_id, name, image, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (talent_id) DO UPDATE
		SET name = EXCLUDED.name, image = EXCLUDED.image, updated_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, liver := range livers {
		if liver.TalentID == "" || liver.Name == "" {
			r.logger.Warn("Skipping incomplete liver entry", zap.String("talent_id", liver.TalentID))
			continue
		}
		if _, err := stmt.ExecContext(ctx, liver.TalentID, liver.Name, liver.Image); err != nil {
			return written, fmt.Errorf("failed to upsert liver %s: %w", liver.TalentID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit: %w", err)
	}
	return written, nil
}
