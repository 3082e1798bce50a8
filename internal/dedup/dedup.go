// Package dedup implements the Deduplicator (C3): intra-batch
// collapse followed by a cross-catalog lookup, per spec.md §4.3.
package dedup

import (
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

// Lookup is the read-only view into the Catalog Store the
// Deduplicator needs for its cross-catalog pass: find an existing
// record by an externalIds namespace value, or by normalized-title
// fingerprint.
type Lookup interface {
	FindByExternalID(namespace, value string) (*record.Record, bool)
	FindByTitleFingerprint(fingerprint string) (*record.Record, bool)
}

// Outcome is the result of deduplicating one incoming batch: records
// genuinely new to the catalog, and records that updated an existing
// entry (merged in place, ready for the caller to persist).
type Outcome struct {
	New     []*record.Record
	Updated []*record.Record
}

// Dedupe runs the full two-pass algorithm from spec.md §4.3 over a
// batch of freshly-normalized records against the current catalog.
func Dedupe(batch []*record.Record, catalog Lookup) Outcome {
	collapsed := collapseIntraBatch(batch)

	out := Outcome{
		New:     make([]*record.Record, 0, len(collapsed)),
		Updated: make([]*record.Record, 0),
	}
	for _, incoming := range collapsed {
		existing, found := lookupExisting(incoming, catalog)
		if !found {
			out.New = append(out.New, incoming)
			continue
		}
		merge(existing, incoming)
		out.Updated = append(out.Updated, existing)
	}
	return out
}

// collapseIntraBatch collapses records within a single batch that
// share an identity key, per spec.md §4.3 step 1. Record.ID is always
// populated by Finalize before reaching the Deduplicator, so identity
// keys are simply record IDs.
func collapseIntraBatch(batch []*record.Record) []*record.Record {
	byID := make(map[string]*record.Record, len(batch))
	order := make([]string, 0, len(batch))
	for _, r := range batch {
		existing, ok := byID[r.ID]
		if !ok {
			byID[r.ID] = r
			order = append(order, r.ID)
			continue
		}
		byID[r.ID] = collapsePair(existing, r)
	}
	out := make([]*record.Record, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// collapsePair merges b into a, keeping whichever of the two "wins"
// (higher citation count, or a more complete summary) as the base and
// field-wise merging the rest — spec.md §4.3 step 1.
func collapsePair(a, b *record.Record) *record.Record {
	winner, loser := a, b
	if b.Citations > a.Citations || (b.Citations == a.Citations && len(b.Summary) > len(a.Summary)) {
		winner, loser = b, a
	}
	merge(winner, loser)
	return winner
}

func lookupExisting(r *record.Record, catalog Lookup) (*record.Record, bool) {
	for namespace, value := range r.ExternalIDs {
		if value == "" {
			continue
		}
		if existing, ok := catalog.FindByExternalID(namespace, value); ok {
			return existing, true
		}
	}
	if record.SkipFingerprint(r.Title) {
		return nil, false
	}
	fp := record.TitleFingerprint(r.Title, firstAuthor(r.Authors), r.Published.Year())
	return catalog.FindByTitleFingerprint(fp)
}

func firstAuthor(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	return authors[0]
}

// merge applies the update policy of spec.md §4.3 step 3 to dst,
// folding in src: union externalIds, max of numeric counters, union
// tags/categories/technologies/industries, earliest published, latest
// updated. A non-empty src.Summary/Venue/PDFLink fills an empty dst
// field; src never overwrites a populated one — "non-empty value
// wins" resolves in favor of whichever side already had it.
func merge(dst, src *record.Record) {
	for ns, v := range src.ExternalIDs {
		if v == "" {
			continue
		}
		if _, ok := dst.ExternalIDs[ns]; !ok {
			dst.ExternalIDs[ns] = v
		}
	}
	if src.Citations > dst.Citations {
		dst.Citations = src.Citations
	}
	if dst.Summary == "" {
		dst.Summary = src.Summary
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.PDFLink == "" {
		dst.PDFLink = src.PDFLink
	}
	if dst.Link == "" {
		dst.Link = src.Link
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}

	for tag := range src.Tags {
		dst.AddTag(tag)
	}
	for cat := range src.Categories {
		dst.AddCategory(cat)
	}
	for tech := range src.Technologies {
		dst.AddTechnology(tech)
	}
	for ind := range src.Industries {
		dst.AddIndustry(ind)
	}

	if !src.Published.IsZero() && (dst.Published.IsZero() || src.Published.Before(dst.Published)) {
		dst.Published = src.Published
	}
	if src.Updated.After(dst.Updated) {
		dst.Updated = src.Updated
	}
	if dst.Updated.IsZero() {
		dst.Updated = time.Now().UTC()
	}
}
