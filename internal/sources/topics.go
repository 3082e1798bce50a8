package sources

// topicRotation is the shared hour-of-day topic rotation spec.md §4.2
// calls for ("topic rotation by hour-of-day") used by the keyword-query
// upstreams (Semantic Scholar, OpenAlex, Crossref, PubMed, DBLP).
var topicRotation = []string{
	"machine learning",
	"large language models",
	"computer vision",
	"robotics",
	"quantum computing",
	"natural language processing",
	"reinforcement learning",
	"distributed systems",
	"cryptography",
	"bioinformatics",
	"autonomous vehicles",
	"semiconductor design",
}

func topicForHour(hour int) string {
	return topicRotation[hour%len(topicRotation)]
}
