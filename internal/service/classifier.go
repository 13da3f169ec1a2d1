package service

import (
	"strings"
)

// Префиксы путей, которые не учитываются как посещения страниц
const (
	APIPrefix   = "/api/"
	AdminPrefix = "/konsole"
)

// assetSuffixes расширения статических файлов (сравнение без учёта регистра)
var assetSuffixes = []string{
	".js", ".css", ".png", ".jpg", ".svg", ".ico",
	".woff", ".woff2", ".ttf", ".map",
}

// Classification решение о записи запроса в журнал
type Classification struct {
	ShouldLog bool
}

// Classify решает, нужно ли записывать запрос. Чистая функция без побочных эффектов.
func Classify(path string, isDuplicate bool) Classification {
	return Classification{ShouldLog: IsTrackable(path) && !isDuplicate}
}

// IsTrackable проверяет всё, кроме признака дубликата: запрос к странице,
// а не к статике, API или админке
func IsTrackable(path string) bool {
	return !IsAssetPath(path) &&
		!strings.HasPrefix(path, APIPrefix) &&
		!strings.HasPrefix(path, AdminPrefix)
}

// IsAssetPath проверяет суффикс статического файла
func IsAssetPath(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
