package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mantonx/vidindex/internal/database"
	"gorm.io/gorm"
)

// FolderSummary is one row of the grouped folder listing.
type FolderSummary struct {
	ContainerFolder string `json:"container_folder"`
	VideoCount      int64  `json:"video_count"`
}

// FolderSummaries groups videos by container folder, largest first. A
// non-empty query keeps only videos whose title, tags or path contain it,
// ignoring case. limit <= 0 means no limit.
func (s *Store) FolderSummaries(ctx context.Context, query string, limit int) ([]FolderSummary, error) {
	stmt := s.db(ctx).Model(&database.Video{}).
		Select("container_folder, COUNT(id) AS video_count").
		Group("container_folder").
		Order("video_count DESC, container_folder ASC")

	if q := strings.TrimSpace(query); q != "" {
		pattern := likePattern(q)
		stmt = stmt.Where(
			"(LOWER(title) LIKE LOWER(?) ESCAPE '\\' OR LOWER(tags) LIKE LOWER(?) ESCAPE '\\' OR LOWER(path) LIKE LOWER(?) ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	summaries := make([]FolderSummary, 0)
	if err := stmt.Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return summaries, nil
}

// VideosInFolder lists the videos whose container folder equals folder,
// ordered by title. A non-empty query keeps only videos whose title or tags
// contain it, ignoring case.
func (s *Store) VideosInFolder(ctx context.Context, folder, query string) ([]database.Video, error) {
	stmt := s.db(ctx).Where("container_folder = ?", folder)

	if q := strings.TrimSpace(query); q != "" {
		pattern := likePattern(q)
		stmt = stmt.Where(
			"(LOWER(title) LIKE LOWER(?) ESCAPE '\\' OR LOWER(tags) LIKE LOWER(?) ESCAPE '\\')",
			pattern, pattern,
		)
	}

	videos := make([]database.Video, 0)
	if err := stmt.Order("title ASC").Order("id ASC").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos in folder: %w", err)
	}
	return videos, nil
}

// Get retrieves a video by ID
func (s *Store) Get(ctx context.Context, id uint32) (*database.Video, error) {
	var video database.Video
	if err := s.db(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return &video, nil
}

// UpdateDetails sets the user-editable fields of one video.
func (s *Store) UpdateDetails(ctx context.Context, id uint32, title, tags string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}

	result := s.db(ctx).Model(&database.Video{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title": title,
		"tags":  strings.TrimSpace(tags),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update video: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// Delete removes one video by ID
func (s *Store) Delete(ctx context.Context, id uint32) error {
	result := s.db(ctx).Where("id = ?", id).Delete(&database.Video{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete video: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// Count returns the number of catalogued videos.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db(ctx).Model(&database.Video{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return n, nil
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.tm.DB().WithContext(ctx)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring pattern with LIKE metacharacters escaped.
// Case folding happens in SQL on both sides of the comparison so the column
// and the pattern are lowered by the same rules.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
