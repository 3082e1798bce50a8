package record

import "strings"

// ArxivCategoryTags maps an arXiv subject-class code to the canonical
// domain tag it contributes, grounded on the category taxonomy used by
// SciFind's arXiv provider in the retrieval pack. Adapters for other
// sources (Semantic Scholar fields-of-study, OpenAlex concepts, DBLP
// venues) map onto the same canonical tag vocabulary via their own
// smaller tables.
var ArxivCategoryTags = map[string]string{
	"cs.AI": "Artificial Intelligence",
	"cs.CL": "Natural Language Processing",
	"cs.CV": "Computer Vision",
	"cs.LG": "Machine Learning",
	"cs.DC": "Distributed Computing",
	"cs.CR": "Cryptography and Security",
	"cs.IR": "Information Retrieval",
	"cs.NE": "Neural and Evolutionary Computing",
	"cs.RO": "Robotics",
	"cs.SE": "Software Engineering",
	"cs.DB": "Databases",
	"stat.ML": "Machine Learning",
	"q-fin.CP": "Computational Finance",
	"q-fin.TR": "Trading and Market Microstructure",
	"eess.AS": "Audio and Speech Processing",
	"eess.IV": "Image and Video Processing",
}

// SubjectPrefixTags maps a subject-class prefix (everything before the
// dot) to the general domain tag it contributes regardless of which
// specific subcategory matched — spec.md §4.2 "any math.* → Mathematics".
var SubjectPrefixTags = map[string]string{
	"math":   "Mathematics",
	"physics": "Physics",
	"stat":   "Statistics",
	"q-bio":  "Quantitative Biology",
	"q-fin":  "Quantitative Finance",
	"econ":   "Economics",
	"eess":   "Electrical Engineering",
	"cs":     "Computer Science",
}

// TagCategory applies ArxivCategoryTags and SubjectPrefixTags to a raw
// upstream category code and adds both the specific and general tags to
// the record, per spec.md §4.2 Tagging.
func TagCategory(r *Record, code string) {
	r.AddCategory(code)
	if tag, ok := ArxivCategoryTags[code]; ok {
		r.AddTag(tag)
	}
	if i := strings.Index(code, "."); i > 0 {
		if tag, ok := SubjectPrefixTags[code[:i]]; ok {
			r.AddTag(tag)
		}
	} else if tag, ok := SubjectPrefixTags[code]; ok {
		r.AddTag(tag)
	}
}
