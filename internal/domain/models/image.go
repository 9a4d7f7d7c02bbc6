package models

// ImageVariant is one stored rendition of a generated image.
type ImageVariant struct {
	Filename string `json:"filename"`
	Suffix   string `json:"suffix"`
	URL      string `json:"url"`
}

// GalleryImage groups every stored variant of one generated image.
type GalleryImage struct {
	Name           string         `json:"name"`
	URL            string         `json:"url,omitempty"`
	AvailableSizes []ImageVariant `json:"availableSizes"`
	Timestamp      int64          `json:"timestamp"`
}

// GalleryCache is the JSON document stored under the gallery cache key.
type GalleryCache struct {
	AllImages  []GalleryImage `json:"allImages"`
	TotalBlobs int            `json:"totalBlobs"`
}

// Pagination describes one page of the gallery.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	HasMore     bool `json:"hasMore"`
	TotalImages int  `json:"totalImages"`
	TotalPages  int  `json:"totalPages"`
}

// GalleryMetadata carries per-page statistics.
type GalleryMetadata struct {
	AvailableSizes []string       `json:"availableSizes"`
	SizeStats      map[string]int `json:"sizeStats"`
	TotalBlobs     int            `json:"totalBlobs"`
}

// GalleryPage is the list-images response body.
type GalleryPage struct {
	Images     []GalleryImage  `json:"images"`
	Pagination Pagination      `json:"pagination"`
	Metadata   GalleryMetadata `json:"metadata"`
}

// StoredBlob is a raw entry from the upstream image listing.
type StoredBlob struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GeneratedImage is returned by the upstream generator and by create-image.
type GeneratedImage struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url,omitempty"`
	Sizes    []string `json:"sizes"`
	Prompt   string   `json:"prompt,omitempty"`
}
