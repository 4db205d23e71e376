package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tweettube/backend/internal/db"
	"github.com/tweettube/backend/internal/models"
)

const commentColumns = `c.id, c.owner_id, c.video_id, c.content, c.created_at, c.updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.OwnerID, &c.VideoID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	return c, nil
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, owner_id, video_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.OwnerID, comment.VideoID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a single comment by id.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments c WHERE c.id = $1`, id))
}

// ListByVideo returns one page of a video's comments, newest first, with each
// author's public profile inlined.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, pageNum, limit int64) (models.Page[models.CommentWithOwner], error) {
	var zero models.Page[models.CommentWithOwner]

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	page, limit, offset := normalizePage(pageNum, limit)

	var total int64
	countRow := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID)
	if err := countRow.Scan(&total); err != nil {
		return zero, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`, u.id, u.username, u.full_name, u.avatar
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $2 OFFSET $3
    `, videoID, limit, offset)
	if err != nil {
		return zero, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	items := []models.CommentWithOwner{}
	for rows.Next() {
		var c models.CommentWithOwner
		err := rows.Scan(
			&c.ID, &c.OwnerID, &c.VideoID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.ID, &c.Owner.Username, &c.Owner.FullName, &c.Owner.Avatar,
		)
		if err != nil {
			return zero, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate comments: %w", err)
	}

	return models.Page[models.CommentWithOwner]{
		Items:       items,
		TotalCount:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

// UpdateContent replaces a comment's text and returns the updated row.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE comments c
        SET content = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+commentColumns+`
    `, id, content)

	return scanComment(row)
}

// Delete removes a comment. Its likes cascade at the schema level.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
