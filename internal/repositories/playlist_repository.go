package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tweettube/backend/internal/db"
	"github.com/tweettube/backend/internal/models"
)

const playlistColumns = `p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for
// playlists and their video memberships.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by
// PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("scan playlist: %w", err)
	}
	return p, nil
}

// Create stores a new playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist without resolving its videos.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanPlaylist(conn.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists p WHERE p.id = $1`, id))
}

// FindByIDWithVideos fetches a playlist and its videos in stored order.
func (r *PostgresPlaylistRepository) FindByIDWithVideos(ctx context.Context, id string) (models.PlaylistWithVideos, error) {
	var zero models.PlaylistWithVideos

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists p WHERE p.id = $1`, id))
	if err != nil {
		return zero, err
	}

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        WHERE pv.playlist_id = $1
        ORDER BY pv.position
    `, id)
	if err != nil {
		return zero, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		err := rows.Scan(
			&v.ID, &v.OwnerID, &v.VideoFile, &v.VideoFileKey, &v.Thumbnail, &v.ThumbnailKey,
			&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished,
			&v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return zero, fmt.Errorf("scan playlist video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return zero, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return models.PlaylistWithVideos{Playlist: playlist, Videos: videos}, nil
}

// ListByOwner returns every playlist owned by the user, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+playlistColumns+`
        FROM playlists p
        WHERE p.owner_id = $1
        ORDER BY p.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

// UpdateDetails replaces a playlist's name and description and returns the
// updated row.
func (r *PostgresPlaylistRepository) UpdateDetails(ctx context.Context, id, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE playlists p
        SET name = $2, description = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+playlistColumns+`
    `, id, name, description)

	return scanPlaylist(row)
}

// Delete removes a playlist and, via cascade, its video memberships.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddVideo appends a video to the end of the playlist. Adding a video that is
// already present returns ErrConflict.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, position)
        SELECT $1, $2, COALESCE(MAX(position), 0) + 1
        FROM playlist_videos
        WHERE playlist_id = $1
        ON CONFLICT (playlist_id, video_id) DO NOTHING
    `, playlistID, videoID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert playlist video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	return nil
}

// RemoveVideo drops a video from the playlist. Positions of the remaining
// entries are left untouched; ordering only needs to stay monotonic.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos
        WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("delete playlist video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
