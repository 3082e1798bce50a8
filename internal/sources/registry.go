package sources

// Names lists every adapter name recognized by internal/ratelimit and
// internal/sources/client.go, used to pre-register a circuit breaker
// and rate limiter per source at startup.
var Names = []string{
	"arxiv", "semanticScholar", "openAlex", "crossref", "pubmed", "dblp",
	"github", "news", "patent", "job", "podcast",
}
