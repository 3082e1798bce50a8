package record

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

// ComputeID assigns a record's deterministic id following the Identity
// Rules in spec.md §3: the strongest available external identifier
// wins; ties never happen because the rules are checked in a fixed
// order and the first match decides.
func ComputeID(r *Record) string {
	if v, ok := r.ExternalIDs[NSArxiv]; ok && v != "" {
		return "arxiv:" + v
	}
	if v, ok := r.ExternalIDs[NSDOI]; ok && v != "" {
		return "doi:" + NormalizeDOI(v)
	}
	if v, ok := r.ExternalIDs[NSSemanticScholar]; ok && v != "" {
		return "ss:" + v
	}
	if v, ok := r.ExternalIDs[NSOpenAlex]; ok && v != "" {
		return "oa:" + v
	}
	if v, ok := r.ExternalIDs[NSPubMed]; ok && v != "" {
		return "pmid:" + v
	}
	if v, ok := r.ExternalIDs[NSDBLP]; ok && v != "" {
		return "dblp:" + v
	}
	if v, ok := r.ExternalIDs[NSYouTube]; ok && v != "" {
		return "yt:" + v
	}
	return "fp:" + TitleFingerprint(r.Title, firstAuthorLastname(r.Authors), r.Published.Year())
}

// NormalizeDOI lowercases and strips any doi.org URL prefix, so
// "https://doi.org/10.1/X" and "10.1/x" collide.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	d = strings.TrimPrefix(d, "https://doi.org/")
	d = strings.TrimPrefix(d, "http://doi.org/")
	d = strings.TrimPrefix(d, "doi:")
	return d
}

var fingerprintNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
var fingerprintSpace = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases, strips punctuation, and collapses
// whitespace, per spec.md §3 "Normalization for title fingerprints".
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = fingerprintNonAlnum.ReplaceAllString(t, "")
	t = fingerprintSpace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// TitleFingerprint builds the fp:<sha1> identity fallback.
func TitleFingerprint(title, firstAuthorLastname string, year int) string {
	payload := NormalizeTitle(title) + "|" + strings.ToLower(firstAuthorLastname) + "|" + strconv.Itoa(year)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func firstAuthorLastname(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	fields := strings.Fields(authors[0])
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// SkipFingerprint reports whether a title is too short to fingerprint
// reliably (spec.md §4.3 edge case: titles of length under 5 skip the
// fingerprint pass).
func SkipFingerprint(title string) bool {
	return len(strings.TrimSpace(title)) < 5
}
