package commune

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// excerptLen is the number of characters a list view shows per post.
const excerptLen = 200

var markupRe = regexp.MustCompile(`(<([^>]+)>)`)

// Slugify derives a URL-safe identifier from a title: lowercase, with runs of
// whitespace and punctuation collapsed into single dashes. It is pure and
// deterministic; collision suffixes are applied by the calling service, not
// here.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// CollisionSlug appends the collision suffix for the n-th same-titled
// document in a scope. n is the count of existing documents with an equal
// title; with n == 0 the base slug is returned unchanged, otherwise the new
// document becomes the (n+1)-th and is suffixed accordingly.
func CollisionSlug(base string, n int64) string {
	if n <= 0 {
		return base
	}
	return base + "-" + strconv.FormatInt(n+1, 10)
}

// MakeExcerpt strips markup tags from content and returns its first 200
// characters. Characters, not bytes: multi-byte runes count as one.
func MakeExcerpt(content string) string {
	plain := markupRe.ReplaceAllString(content, "")
	runes := []rune(plain)
	if len(runes) <= excerptLen {
		return plain
	}
	return string(runes[:excerptLen])
}
