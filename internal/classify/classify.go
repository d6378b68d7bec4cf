// Package classify maps search results to content-type tags using
// deterministic domain and text pattern rules.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/topicradar/models"
)

// ContentType is the taxonomy for a piece of web content.
type ContentType string

const (
	TypePapers      ContentType = "papers"
	TypeNews        ContentType = "news"
	TypeDiscussions ContentType = "discussions"
	TypeVideos      ContentType = "videos"
	TypeCode        ContentType = "code"
)

// Labels maps each content type to its dashboard section heading.
var Labels = map[ContentType]string{
	TypePapers:      "Research Papers",
	TypeNews:        "News & Articles",
	TypeDiscussions: "Discussions",
	TypeVideos:      "Videos",
	TypeCode:        "Code",
}

var paperDomains = domainSet(
	"arxiv.org", "pubmed.ncbi.nlm.nih.gov", "pmc.ncbi.nlm.nih.gov",
	"scholar.google.com", "semanticscholar.org", "papers.ssrn.com",
	"researchgate.net", "dl.acm.org", "ieee.org", "ieeexplore.ieee.org",
	"springer.com", "link.springer.com", "sciencedirect.com", "elsevier.com",
	"nature.com", "science.org", "cell.com", "biorxiv.org", "medrxiv.org",
	"plos.org", "frontiersin.org", "mdpi.com", "openreview.net", "acm.org",
	"ncbi.nlm.nih.gov", "nih.gov",
)

var discussionDomains = domainSet(
	"reddit.com", "news.ycombinator.com", "stackoverflow.com",
	"stackexchange.com", "quora.com", "lobste.rs", "dev.to",
	"forum.fast.ai", "discuss.pytorch.org", "discourse.julialang.org",
)

var videoDomains = domainSet(
	"youtube.com", "youtu.be", "vimeo.com", "twitch.tv",
	"ted.com", "coursera.org", "udemy.com",
)

var codeDomains = domainSet(
	"github.com", "gitlab.com", "gist.github.com", "codepen.io",
	"replit.com", "colab.research.google.com", "huggingface.co",
	"pypi.org", "npmjs.com",
)

var paperPathRe = regexp.MustCompile(`/(?:abs|pdf)/`)

var (
	paperTextRe      = regexp.MustCompile(`(?i)\b(?:arxiv|preprint|doi|abstract|methodology|findings|peer.reviewed|proceedings|conference paper)\b`)
	discussionTextRe = regexp.MustCompile(`(?i)\b(?:reddit|thread|discussion|comment|ama|posted|r/|upvote)\b`)
	videoTextRe      = regexp.MustCompile(`(?i)\b(?:youtube|video|watch|episode|podcast|lecture|talk)\b`)
	codeTextRe       = regexp.MustCompile(`(?i)\b(?:github|repo|repository|package|library|snippet|npm|pip install)\b`)
)

func domainSet(domains ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	return set
}

// ClassifyURL classifies a URL by its domain, falling back to TypeNews for
// unknown domains and for URLs that cannot be parsed. It is total: every
// input maps to a valid content type.
func ClassifyURL(raw string) ContentType {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return TypeNews
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")

	switch {
	case contains(paperDomains, domain) || paperPathRe.MatchString(parsed.Path):
		return TypePapers
	case contains(discussionDomains, domain):
		return TypeDiscussions
	case contains(videoDomains, domain):
		return TypeVideos
	case contains(codeDomains, domain):
		return TypeCode
	}
	return TypeNews
}

func contains(set map[string]struct{}, domain string) bool {
	_, ok := set[domain]
	return ok
}

// classifyByText infers a content type from title and snippet keywords when
// the URL defaulted to news.
func classifyByText(title, snippet string) ContentType {
	combined := title + " " + snippet
	switch {
	case paperTextRe.MatchString(combined):
		return TypePapers
	case discussionTextRe.MatchString(combined):
		return TypeDiscussions
	case videoTextRe.MatchString(combined):
		return TypeVideos
	case codeTextRe.MatchString(combined):
		return TypeCode
	}
	return TypeNews
}

// Classify tags one search result with a content type. URL rules win when
// they match a specific domain; otherwise title/snippet heuristics decide.
func Classify(result models.SearchResult) ContentType {
	if ct := ClassifyURL(result.URL); ct != TypeNews {
		return ct
	}
	return classifyByText(result.Title, result.Snippet)
}
