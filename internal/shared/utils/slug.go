package utils

import (
	"path"
	"regexp"
	"strings"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedHyphen = regexp.MustCompile(`-+`)
)

// maxSlugLength giữ object key ngắn gọn
const maxSlugLength = 60

// GenerateSlug: "BMW E46 Coilovers!" → "bmw-e46-coilovers"
func GenerateSlug(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	hyphenated := strings.NewReplacer(" ", "-", "_", "-", ".", "-").Replace(lower)
	cleaned := nonSlugChars.ReplaceAllString(hyphenated, "")
	normalized := repeatedHyphen.ReplaceAllString(cleaned, "-")
	trimmed := strings.Trim(normalized, "-")

	if len(trimmed) > maxSlugLength {
		trimmed = strings.Trim(trimmed[:maxSlugLength], "-")
	}
	return trimmed
}

// SplitFilename tách tên file thành slug và extension (lower-case, không có dấu chấm)
// "My Photo.JPG" → ("my-photo", "jpg")
func SplitFilename(filename string) (string, string) {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	slug := GenerateSlug(name)
	if slug == "" {
		slug = "file"
	}
	return slug, GenerateSlug(strings.TrimPrefix(ext, "."))
}
