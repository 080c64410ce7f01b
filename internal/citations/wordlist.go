package citations

// domainWords ranks the vocabulary used to segment concatenated domain
// names, most frequent first. It mixes high-frequency English words with the
// tokens that actually occur in news, finance, and reference site domains.
// Segmentation cost grows with rank, so earlier words win ties.
var domainWords = []string{
	"the", "of", "and", "to", "in", "a", "is", "that", "for", "it",
	"as", "on", "be", "by", "at", "an", "we", "or", "my", "up",
	"news", "times", "time", "ny", "new", "york", "business", "insider",
	"daily", "mail", "post", "journal", "street", "wall", "world",
	"financial", "finance", "market", "markets", "stock", "stocks",
	"money", "economy", "economist", "tech", "technology", "crunch",
	"wired", "verge", "global", "national", "herald", "tribune",
	"chronicle", "gazette", "observer", "guardian", "telegraph",
	"independent", "express", "mirror", "sun", "star", "today", "usa",
	"abc", "nbc", "cbs", "cnn", "bbc", "fox", "sky", "reuters",
	"bloomberg", "forbes", "fortune", "yahoo", "google", "bing",
	"wiki", "wikipedia", "britannica", "encyclopedia", "investor",
	"investors", "investing", "investment", "investments", "investopedia",
	"motley", "fool", "seeking", "alpha", "zacks", "morningstar",
	"morning", "benzinga", "barrons", "watch", "watcher", "quote",
	"quotes", "chart", "charts", "data", "info", "information",
	"insight", "insights", "analytics", "analysis", "analyst",
	"research", "report", "reports", "review", "reviews", "blog",
	"media", "press", "wire", "newswire", "group", "company",
	"companies", "corp", "corporate", "capital", "partners", "venture",
	"ventures", "fund", "funds", "bank", "banking", "trade", "trader",
	"trading", "exchange", "crypto", "coin", "desk", "base", "hub",
	"spot", "net", "web", "online", "live", "stream", "feed", "digest",
	"brief", "briefing", "bulletin", "dispatch", "record", "register",
	"example", "test", "sample", "demo", "site", "page", "home", "portal",
	"search", "find", "ask", "answers", "facts", "fact", "check",
	"checker", "source", "sources", "cite", "archive", "library",
	"open", "free", "first", "one", "two", "big", "top", "best", "real",
	"true", "smart", "quick", "fast", "easy", "pro", "plus", "max",
	"meta", "micro", "macro", "inter", "intra", "multi", "omni", "uni",
	"sports", "sport", "health", "science", "nature", "life", "style",
	"travel", "food", "auto", "motor", "motors", "energy", "power",
	"digital", "cyber", "cloud", "app", "apps", "dev", "code", "soft",
	"ware", "systems", "system", "solutions", "services", "service",
	"network", "networks", "labs", "lab", "works", "work", "shop",
	"store", "mart", "deal", "deals", "buy", "sell", "pay", "cash",
	"credit", "loan", "rate", "rates", "tax", "audit", "legal", "law",
	"court", "gov", "city", "state", "county", "europe", "asia",
	"america", "american", "pacific", "atlantic", "east", "west",
	"north", "south", "united", "union", "federal", "central", "public",
	"private", "social", "people", "person", "user", "users", "member",
	"members", "club", "forum", "board", "list", "index", "wikia",
	"fandom", "stack", "over", "flow", "git", "bit", "byte", "bytes",
}

// segDict maps word -> segmentation cost, derived from rank.
var segDict = buildSegDict()

func buildSegDict() map[string]float64 {
	m := make(map[string]float64, len(domainWords))
	for i, w := range domainWords {
		if _, ok := m[w]; ok {
			continue
		}
		// Zipf-flavored cost: cheap head, slowly growing tail.
		m[w] = 1.0 + float64(i)/32.0
	}
	return m
}
