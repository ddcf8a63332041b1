package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/portfoliopro/portfoliopro/internal/database"
	"github.com/portfoliopro/portfoliopro/internal/model"
	"github.com/portfoliopro/portfoliopro/internal/patch"
)

// ProjectColumns はprojectsテーブルのSELECT/RETURNING用カラムリスト。
// project_dateはYYYY-MM-DD文字列として取得する。
const ProjectColumns = "id, site_id, title, description, to_char(project_date, 'YYYY-MM-DD'), tags, images, order_index, created_at, updated_at"

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

func scanProject(row rowScanner) (*model.Project, error) {
	p := &model.Project{}
	var description, date sql.NullString
	if err := row.Scan(
		&p.ID, &p.SiteID, &p.Title, &description, &date,
		pq.Array(&p.Tags), pq.Array(&p.Images), &p.OrderIndex,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Date = date.String
	return p, nil
}

func (r *PostgresProjectRepo) queryList(ctx context.Context, query string, args ...any) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// ListBySiteID はサイトのプロジェクトをorder_index昇順で返す。
func (r *PostgresProjectRepo) ListBySiteID(ctx context.Context, siteID string) ([]*model.Project, error) {
	return r.queryList(ctx,
		`SELECT `+ProjectColumns+` FROM projects WHERE site_id = $1 ORDER BY order_index ASC, created_at ASC`,
		siteID)
}

// ListByUserID はユーザーの全サイトにまたがるプロジェクトを返す。
func (r *PostgresProjectRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Project, error) {
	return r.queryList(ctx,
		`SELECT p.id, p.site_id, p.title, p.description, to_char(p.project_date, 'YYYY-MM-DD'),
		        p.tags, p.images, p.order_index, p.created_at, p.updated_at
		 FROM projects p
		 INNER JOIN sites s ON s.id = p.site_id
		 WHERE s.user_id = $1
		 ORDER BY s.created_at ASC, p.order_index ASC`,
		userID)
}

// FindByID はサイト内の指定プロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, siteID, id string) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+ProjectColumns+` FROM projects WHERE id = $1 AND site_id = $2`,
		id, siteID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project by ID: %w", err)
	}
	return p, nil
}

// Create はプロジェクトを作成する。order_indexはサイト内の最大値+1（初回は0）。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	tags, images := project.Tags, project.Images
	if tags == nil {
		tags = []string{}
	}
	if images == nil {
		images = []string{}
	}

	created, err := scanProject(r.db.QueryRowContext(ctx,
		`INSERT INTO projects (id, site_id, title, description, project_date, tags, images, order_index)
		 VALUES ($1, $2, $3, $4, $5::date, $6, $7,
		         (SELECT COALESCE(MAX(order_index), -1) + 1 FROM projects WHERE site_id = $2))
		 RETURNING `+ProjectColumns,
		project.ID, project.SiteID, project.Title, nullString(project.Description), nullString(project.Date),
		pq.Array(tags), pq.Array(images),
	))
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	*project = *created
	return nil
}

// Update は組み立て済みのUPDATE文を実行し、更新後のプロジェクトを返す。
func (r *PostgresProjectRepo) Update(ctx context.Context, st *patch.Statement) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, st.SQL, st.Args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// DeleteWithAssets はプロジェクトと紐付く画像行を1トランザクションで削除し、
// 削除した行のうちアップロード由来のファイルキーを返す。
func (r *PostgresProjectRepo) DeleteWithAssets(ctx context.Context, siteID, id string) ([]string, error) {
	var fileKeys []string
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`DELETE FROM image_assets WHERE project_id = $1 AND site_id = $2 RETURNING file_key`,
			id, siteID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete project assets: %w", err)
		}
		for rows.Next() {
			var key sql.NullString
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan asset file key: %w", err)
			}
			if key.Valid && key.String != "" {
				fileKeys = append(fileKeys, key.String)
			}
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("failed to close asset rows: %w", err)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate asset rows: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM projects WHERE id = $1 AND site_id = $2`,
			id, siteID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("project not found: %s", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fileKeys, nil
}

// AttachImage は画像行の挿入とプロジェクトのimagesへのURL追加を1トランザクションで行う。
func (r *PostgresProjectRepo) AttachImage(ctx context.Context, asset *model.ImageAsset) (*model.Project, error) {
	var project *model.Project
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertAsset(ctx, tx, asset); err != nil {
			return err
		}

		p, err := scanProject(tx.QueryRowContext(ctx,
			`UPDATE projects SET images = array_append(images, $1), updated_at = now()
			 WHERE id = $2 AND site_id = $3
			 RETURNING `+ProjectColumns,
			asset.URL, asset.ProjectID, asset.SiteID,
		))
		if err == sql.ErrNoRows {
			return fmt.Errorf("project not found: %s", asset.ProjectID)
		}
		if err != nil {
			return fmt.Errorf("failed to append project image: %w", err)
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// OwnerOf はプロジェクト→サイト→ユーザーを辿り所有ユーザーIDを解決する。
func (r *PostgresProjectRepo) OwnerOf(ctx context.Context, siteID, projectID string) (string, bool, error) {
	return lookupOwner(ctx, r.db,
		`SELECT s.user_id FROM projects p INNER JOIN sites s ON s.id = p.site_id WHERE p.id = $1 AND p.site_id = $2`,
		projectID, siteID)
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
