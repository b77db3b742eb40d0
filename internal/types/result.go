package types

// Resolution holds the pixel dimensions of a rendered output
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// JobResult holds the backend-defined output metadata of a completed job
type JobResult struct {
	// Filename is the name of the generated file on the backend
	Filename string `json:"filename,omitempty"`

	// Filepath is the backend-local path of the generated file
	Filepath string `json:"filepath,omitempty"`

	// DownloadURL is where the raw file payload can be fetched from
	DownloadURL string `json:"download_url,omitempty"`

	// ThumbnailURL is where a preview image can be fetched from, if any
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// FileSize is the size of the generated file in bytes
	FileSize int64 `json:"file_size,omitempty"`

	// Resolution is the pixel dimensions of the output, for image/video jobs
	Resolution *Resolution `json:"resolution,omitempty"`

	// Metadata carries any additional backend-defined fields
	Metadata map[string]any `json:"metadata,omitempty"`
}
