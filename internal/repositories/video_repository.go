package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tweettube/backend/internal/db"
	"github.com/tweettube/backend/internal/models"
)

const videoColumns = `v.id, v.owner_id, v.video_file, v.video_file_key, v.thumbnail, v.thumbnail_key, v.title, v.description, v.duration_seconds, v.views, v.is_published, v.created_at, v.updated_at`

const ownerJoinColumns = videoColumns + `, u.id, u.username, u.full_name, u.avatar`

// videoSortColumns whitelists the sortable columns exposed through the API.
// Both the snake_case and camelCase spellings are accepted.
var videoSortColumns = map[string]string{
	"created_at": "v.created_at",
	"createdAt":  "v.created_at",
	"views":      "v.views",
	"duration":   "v.duration_seconds",
	"title":      "v.title",
}

// videoSortColumn resolves a client-supplied sort key, falling back to
// creation time for anything outside the whitelist.
func videoSortColumn(sortBy string) string {
	if column, ok := videoSortColumns[sortBy]; ok {
		return column
	}
	return "v.created_at"
}

// ListVideosOptions filters and orders the public video listing.
type ListVideosOptions struct {
	Query              string
	OwnerID            string
	IncludeUnpublished bool
	Page               int64
	Limit              int64
	SortBy             string
	SortAsc            bool
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.VideoFile, &v.VideoFileKey, &v.Thumbnail, &v.ThumbnailKey,
		&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	return v, nil
}

func scanVideoWithOwner(rows pgx.Rows) (models.VideoWithOwner, error) {
	var v models.VideoWithOwner
	err := rows.Scan(
		&v.ID, &v.OwnerID, &v.VideoFile, &v.VideoFileKey, &v.Thumbnail, &v.ThumbnailKey,
		&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished,
		&v.CreatedAt, &v.UpdatedAt,
		&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.Avatar,
	)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("scan video with owner: %w", err)
	}
	return v, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_file, video_file_key, thumbnail, thumbnail_key, title, description, duration_seconds, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.VideoFile, video.VideoFileKey,
		video.Thumbnail, video.ThumbnailKey, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.id = $1`, id))
}

// FindByIDWithOwner fetches a video with its owner's public profile inlined.
func (r *PostgresVideoRepository) FindByIDWithOwner(ctx context.Context, id string) (models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+ownerJoinColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("query video: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.VideoWithOwner{}, fmt.Errorf("query video: %w", err)
		}
		return models.VideoWithOwner{}, ErrNotFound
	}

	return scanVideoWithOwner(rows)
}

// List returns one page of the video catalog together with count metadata.
// The page fetch and the total count are independent reads; under concurrent
// writes they may reflect slightly different points in time.
func (r *PostgresVideoRepository) List(ctx context.Context, opts ListVideosOptions) (models.Page[models.VideoWithOwner], error) {
	var zero models.Page[models.VideoWithOwner]

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	page, limit, offset := normalizePage(opts.Page, opts.Limit)

	var clauses []string
	var args []any
	if !opts.IncludeUnpublished {
		clauses = append(clauses, "v.is_published")
	}
	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		clauses = append(clauses, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	if opts.Query != "" {
		args = append(args, "%"+opts.Query+"%")
		clauses = append(clauses, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	sortColumn := videoSortColumn(opts.SortBy)
	direction := "DESC"
	if opts.SortAsc {
		direction = "ASC"
	}

	var total int64
	countRow := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v `+where, args...)
	if err := countRow.Scan(&total); err != nil {
		return zero, fmt.Errorf("count videos: %w", err)
	}

	listArgs := append(args, limit, offset)
	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        %s
        ORDER BY %s %s
        LIMIT $%d OFFSET $%d
    `, ownerJoinColumns, where, sortColumn, direction, len(args)+1, len(args)+2), listArgs...)
	if err != nil {
		return zero, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	items := []models.VideoWithOwner{}
	for rows.Next() {
		v, err := scanVideoWithOwner(rows)
		if err != nil {
			return zero, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate videos: %w", err)
	}

	return models.Page[models.VideoWithOwner]{
		Items:       items,
		TotalCount:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

// UpdateDetails modifies a video's descriptive fields. Thumbnail references
// are only replaced when a new one is supplied.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description, thumbnailURL, thumbnailKey string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos v
        SET title = $2,
            description = $3,
            thumbnail = COALESCE(NULLIF($4, ''), thumbnail),
            thumbnail_key = COALESCE(NULLIF($5, ''), thumbnail_key),
            updated_at = NOW()
        WHERE id = $1
        RETURNING `+videoColumns+`
    `, id, title, description, thumbnailURL, thumbnailKey)

	return scanVideo(row)
}

// SetPublished flips the publish flag and returns the updated video.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos v
        SET is_published = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+videoColumns+`
    `, id, published)

	return scanVideo(row)
}

// Delete removes a video. Comments, likes, playlist entries, and watch
// history rows cascade at the schema level.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListLiked returns every video the user has liked, newest like first.
func (r *PostgresVideoRepository) ListLiked(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+ownerJoinColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	videos := []models.VideoWithOwner{}
	for rows.Next() {
		v, err := scanVideoWithOwner(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

// AppendWatch records a view in the user's watch history. Repeat views append
// again; the history deliberately keeps duplicates.
func (r *PostgresVideoRepository) AppendWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, NOW())
    `, userID, videoID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert watch history: %w", err)
	}

	return nil
}

// WatchHistory resolves the user's watch history to full videos with owner
// profiles, preserving the stored append order.
func (r *PostgresVideoRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+ownerJoinColumns+`
        FROM watch_history w
        JOIN videos v ON v.id = w.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE w.user_id = $1
        ORDER BY w.id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	videos := []models.VideoWithOwner{}
	for rows.Next() {
		v, err := scanVideoWithOwner(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return videos, nil
}
