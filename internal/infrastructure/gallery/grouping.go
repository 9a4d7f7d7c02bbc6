package gallery

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/genguard/internal/domain/models"
	"github.com/turtacn/genguard/pkg/constants"
)

var (
	imageExtPattern  = regexp.MustCompile(`\.(webp|png|jpeg|jpg)$`)
	timestampPattern = regexp.MustCompile(`_(\d+)\.png$`)
)

// splitVariant returns the group name a blob belongs to and its variant
// suffix. Blobs that are not a processed size are their own group with the
// original suffix.
func splitVariant(filename string) (baseName, suffix string) {
	for _, s := range constants.ImageVariantSuffixes {
		if strings.Contains(filename, s) {
			base := strings.Replace(filename, s, "", 1)
			return imageExtPattern.ReplaceAllString(base, ".png"), s
		}
	}
	return filename, constants.OriginalImageSuffix
}

func parseTimestamp(baseName string) int64 {
	m := timestampPattern.FindStringSubmatch(baseName)
	if m == nil {
		return 0
	}
	ts, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

func defaultURL(variants []models.ImageVariant) string {
	for _, suffix := range constants.DefaultURLPreference {
		for _, v := range variants {
			if v.Suffix == suffix {
				return v.URL
			}
		}
	}
	if len(variants) > 0 {
		return variants[0].URL
	}
	return ""
}

// GroupBlobs folds raw blobs into gallery images, newest first. Groups that
// have processed variants hide their original.
func GroupBlobs(blobs []models.StoredBlob) []models.GalleryImage {
	type group struct {
		timestamp int64
		variants  []models.ImageVariant
	}

	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, blob := range blobs {
		base, suffix := splitVariant(blob.Name)
		g, ok := groups[base]
		if !ok {
			g = &group{timestamp: parseTimestamp(base)}
			groups[base] = g
			order = append(order, base)
		}
		g.variants = append(g.variants, models.ImageVariant{
			Filename: blob.Name,
			Suffix:   suffix,
			URL:      blob.URL,
		})
	}

	images := make([]models.GalleryImage, 0, len(groups))
	for _, base := range order {
		g := groups[base]

		available := make([]models.ImageVariant, 0, len(g.variants))
		for _, v := range g.variants {
			if v.Suffix != constants.OriginalImageSuffix {
				available = append(available, v)
			}
		}
		if len(available) == 0 {
			available = g.variants
		}

		images = append(images, models.GalleryImage{
			Name:           base,
			URL:            defaultURL(available),
			AvailableSizes: available,
			Timestamp:      g.timestamp,
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Timestamp > images[j].Timestamp
	})
	return images
}

// Paginate cuts one page out of the full list. page and limit are raised to
// 1 when smaller. Pages past the end are empty.
func Paginate(all []models.GalleryImage, totalBlobs, page, limit int) *models.GalleryPage {
	page = max(page, 1)
	limit = max(limit, 1)

	// Written so that no product of client-supplied values can overflow.
	totalPages := 0
	if len(all) > 0 {
		totalPages = (len(all)-1)/limit + 1
	}
	start := len(all)
	if page-1 < totalPages {
		start = (page - 1) * limit
	}
	end := start + min(limit, len(all)-start)
	images := all[start:end]

	sizeStats := make(map[string]int)
	for _, img := range images {
		for _, v := range img.AvailableSizes {
			sizeStats[v.Suffix]++
		}
	}

	return &models.GalleryPage{
		Images: images,
		Pagination: models.Pagination{
			Page:        page,
			Limit:       limit,
			HasMore:     end < len(all),
			TotalImages: len(all),
			TotalPages:  totalPages,
		},
		Metadata: models.GalleryMetadata{
			AvailableSizes: constants.ImageVariantSuffixes,
			SizeStats:      sizeStats,
			TotalBlobs:     totalBlobs,
		},
	}
}
