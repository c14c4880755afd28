package database

// Video is a single catalogued video file.
//
// Path is relative to the media root with '/' separators and is unique.
// ContainerFolder is dirname(Path) at creation time and is never re-derived.
type Video struct {
	ID              uint32 `gorm:"primaryKey" json:"id"`
	Title           string `gorm:"size:255;not null;index:ix_video_title_tags,priority:1" json:"title"`
	Path            string `gorm:"size:1024;not null;uniqueIndex" json:"path"`
	ContainerFolder string `gorm:"size:768;not null;index" json:"container_folder"`
	Tags            string `gorm:"size:512;index;index:ix_video_title_tags,priority:2" json:"tags"`
}

// TableName pins the table name regardless of naming strategy.
func (Video) TableName() string {
	return "videos"
}

// Models lists every model managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{&Video{}}
}
