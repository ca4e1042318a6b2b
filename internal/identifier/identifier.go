// Package identifier derives deterministic index and document identifiers
// from source URLs and category keys. Determinism matters: these ids are the
// basis for upsert deduplication, so the same source must always map to the
// same id.
package identifier

import (
	"crypto/md5"
	"fmt"
	"regexp"
	"strings"
)

var (
	invalidRunes = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// IndexName converts an arbitrary key (URL, category name, file name) into a
// valid index name: lowercased slug, at most 60 characters, plus an 8-hex
// digest suffix of the original key to keep distinct keys distinct after
// slugging.
func IndexName(key string) string {
	slug := strings.ToLower(key)
	slug = strings.TrimPrefix(slug, "https://")
	slug = strings.TrimPrefix(slug, "http://")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = invalidRunes.ReplaceAllString(slug, "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}

	sum := md5.Sum([]byte(key))
	return fmt.Sprintf("%s-%x", slug, sum[:4])
}

// DocumentID derives a document id from a source key and a sequence. The
// sequence is either a plain number or a tagged string such as "content-3".
func DocumentID(key string, sequence any) string {
	return fmt.Sprintf("%s-%v", IndexName(key), sequence)
}
