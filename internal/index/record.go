package index

// FolderMarkerID is the reserved record id that marks a folder as existing.
// Marker records carry no content and are never returned by Search.
const FolderMarkerID = ".folder"

// Record is a stored document addressed by its composite key (ID, FolderPath).
type Record struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	FolderPath string `json:"folder_path"`
}

// IsFolderMarker reports whether the record is a folder marker.
func (r Record) IsFolderMarker() bool {
	return r.ID == FolderMarkerID
}

// Hit is a single ranked search result.
type Hit struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	FolderPath string  `json:"folder_path"`
	FullPath   string  `json:"full_path"`
	Score      float64 `json:"score"`
}

// FullPath joins a folder path and a record id the way sources are cited.
func FullPath(folderPath, id string) string {
	if folderPath == "" {
		return id
	}
	return folderPath + "/" + id
}
