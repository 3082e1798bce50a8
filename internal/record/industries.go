package record

import "strings"

// industryKeywords is the static industry → keyword-list map spec.md
// §4.2 calls for: a record may belong to multiple industries when its
// title + summary + tags match more than one list.
var industryKeywords = map[string][]string{
	"Healthcare":     {"clinical", "patient", "diagnosis", "medical", "hospital", "drug", "therapeutic", "disease"},
	"Finance":        {"trading", "portfolio", "bank", "payment", "fraud detection", "credit", "investment", "fintech"},
	"Automotive":     {"autonomous driving", "self-driving", "vehicle", "adas", "automotive"},
	"Manufacturing":  {"supply chain", "factory", "industrial", "manufacturing", "robotics assembly"},
	"Retail":         {"e-commerce", "retail", "recommendation system", "customer", "inventory"},
	"Energy":         {"solar", "battery", "grid", "renewable", "energy storage", "power generation"},
	"Telecom":        {"5g", "6g", "network slicing", "telecom", "spectrum"},
	"Defense":        {"defense", "military", "surveillance", "satellite imagery"},
	"Agriculture":    {"crop", "agriculture", "farming", "precision agriculture"},
	"Education":      {"tutoring", "education", "learning outcomes", "curriculum"},
	"Semiconductors": {"chip", "semiconductor", "fabrication", "lithography", "wafer"},
}

// ClassifyIndustries scans title+summary+tags against industryKeywords
// and adds every matching industry to the record (shared helper, spec
// §4.2 "Industry classification").
func ClassifyIndustries(r *Record) {
	haystack := strings.ToLower(r.Title + " " + r.Summary + " " + strings.Join(r.TagList(), " "))
	for industry, keywords := range industryKeywords {
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				r.AddIndustry(industry)
				break
			}
		}
	}
}

// technologyKeywords seeds the set of normalized technology tags an
// adapter can extract from title + summary (spec.md §3 `technologies`).
// This is intentionally small and extended by individual adapters with
// source-specific vocabularies (e.g. GitHub topics).
var technologyKeywords = map[string]string{
	"large language model": "LLM",
	"llm":                  "LLM",
	"transformer":          "Transformers",
	"diffusion model":      "Diffusion Models",
	"reinforcement learning": "Reinforcement Learning",
	"quantum computing":    "Quantum Computing",
	"retrieval augmented generation": "RAG",
	"vector database":      "Vector Databases",
	"edge computing":       "Edge Computing",
	"federated learning":   "Federated Learning",
	"graph neural network": "Graph Neural Networks",
	"autonomous driving":   "Autonomous Vehicles",
	"robotic":              "Robotics",
	"blockchain":           "Blockchain",
}

// ExtractTechnologies scans title+summary for known technology phrases
// and adds any matches to the record's Technologies set.
func ExtractTechnologies(r *Record) {
	haystack := strings.ToLower(r.Title + " " + r.Summary)
	for phrase, tech := range technologyKeywords {
		if strings.Contains(haystack, phrase) {
			r.AddTechnology(tech)
		}
	}
}
