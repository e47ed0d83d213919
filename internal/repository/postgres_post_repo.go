package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/socialdesk/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postColumns = "id, user_id, description, caption, hashtags, media_urls, platforms, status, scheduled_at, published_at, created_at, updated_at"

// scanPost は1行を読み取りPostを構築する。行が無い場合はnilを返す。
func scanPost(scanner interface{ Scan(dest ...any) error }) (*model.Post, error) {
	post := &model.Post{}
	err := scanner.Scan(
		&post.ID, &post.UserID, &post.Description, &post.Caption, &post.Hashtags,
		pq.Array(&post.MediaURLs), pq.Array(&post.Platforms),
		&post.Status, &post.ScheduledAt, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return post, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		post.ID, post.UserID, post.Description, post.Caption, post.Hashtags,
		pq.Array(post.MediaURLs), pq.Array(post.Platforms),
		post.Status, post.ScheduledAt, post.PublishedAt, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// FindByID は所有者スコープで投稿を取得する。存在しない場合はnilを返す。
// 他ユーザーの投稿は存在しないものとして扱う。
func (r *PostgresPostRepo) FindByID(ctx context.Context, userID, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return scanPost(row)
}

// List は所有者の投稿をフィルタ付きで新しい順に返す。
// Queryはdescription/caption/hashtagsの部分一致、Platformはplatforms配列の包含で絞り込む。
func (r *PostgresPostRepo) List(ctx context.Context, userID string, filter model.PostFilter) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []any{userID}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (description ILIKE $%d OR caption ILIKE $%d OR hashtags ILIKE $%d)", n, n, n)
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Platform != "" {
		args = append(args, filter.Platform)
		query += fmt.Sprintf(" AND $%d = ANY(platforms)", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListUpcoming は指定時刻より後に予約された投稿を予定時刻の昇順で返す。
func (r *PostgresPostRepo) ListUpcoming(ctx context.Context, userID string, after time.Time) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = $1 AND status = $2 AND scheduled_at > $3
		 ORDER BY scheduled_at ASC`,
		userID, model.PostStatusScheduled, after,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// Update は投稿を全列更新する。所有者が一致しない場合はfalseを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET
		     description = $1, caption = $2, hashtags = $3,
		     media_urls = $4, platforms = $5, status = $6,
		     scheduled_at = $7, published_at = $8, updated_at = $9
		 WHERE id = $10 AND user_id = $11`,
		post.Description, post.Caption, post.Hashtags,
		pq.Array(post.MediaURLs), pq.Array(post.Platforms), post.Status,
		post.ScheduledAt, post.PublishedAt, post.UpdatedAt,
		post.ID, post.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は所有者スコープで投稿を削除する。対象が無い場合はfalseを返す。
func (r *PostgresPostRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteMany は所有者スコープで複数の投稿を削除し、削除件数を返す。
// 他ユーザーのIDが混在していてもエラーにはせず、単に削除対象から外れる。
func (r *PostgresPostRepo) DeleteMany(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE user_id = $1 AND id = ANY($2)`,
		userID, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete posts: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// CountByStatus は所有者の投稿件数をステータス別に集計する。
func (r *PostgresPostRepo) CountByStatus(ctx context.Context, userID string) (map[model.PostStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM posts WHERE user_id = $1 GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.PostStatus]int)
	for rows.Next() {
		var status model.PostStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return counts, nil
}

// ListRecentPublished は公開済み投稿を公開日時の新しい順に最大limit件返す。
func (r *PostgresPostRepo) ListRecentPublished(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = $1 AND status = $2 AND published_at IS NOT NULL
		 ORDER BY published_at DESC
		 LIMIT $3`,
		userID, model.PostStatusPublished, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]*model.Post, error) {
	posts := []*model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
