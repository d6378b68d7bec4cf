// Package aggregate turns a raw search result list into ordered,
// content-type-grouped sections for the dashboard.
package aggregate

import (
	"github.com/mohammad-safakhou/topicradar/internal/classify"
	"github.com/mohammad-safakhou/topicradar/internal/helpers"
	"github.com/mohammad-safakhou/topicradar/internal/search"
	"github.com/mohammad-safakhou/topicradar/models"
)

// Section is a content-type-grouped bucket of search results. Section order
// in a response is derived from the detected intent, never stored.
type Section struct {
	Type    classify.ContentType  `json:"type"`
	Label   string                `json:"label"`
	Results []models.SearchResult `json:"results"`
}

// intentPriority maps each intent to the preferred display order of content
// type sections. Types absent from an intent's list are appended after the
// ranked ones, in discovery order.
var intentPriority = map[search.Intent][]classify.ContentType{
	search.IntentAcademic:    {classify.TypePapers, classify.TypeNews, classify.TypeDiscussions, classify.TypeVideos, classify.TypeCode},
	search.IntentTutorial:    {classify.TypeNews, classify.TypeCode, classify.TypeDiscussions, classify.TypeVideos, classify.TypePapers},
	search.IntentBusiness:    {classify.TypeNews, classify.TypeDiscussions, classify.TypePapers, classify.TypeVideos, classify.TypeCode},
	search.IntentExploratory: {classify.TypeNews, classify.TypePapers, classify.TypeDiscussions, classify.TypeVideos, classify.TypeCode},
}

// Deduplicate removes duplicate results by normalised URL, keeping the first
// occurrence. Results whose URL cannot be normalised are dropped.
func Deduplicate(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]struct{}, len(results))
	unique := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		key, err := helpers.NormalizeURL(r.URL)
		if err != nil {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// Aggregate runs the full pipeline: deduplicate, classify, group by content
// type and order sections by intent priority. Empty sections are never
// emitted, and every deduplicated result lands in exactly one section.
func Aggregate(results []models.SearchResult, intent search.Intent) []Section {
	unique := Deduplicate(results)

	grouped := make(map[classify.ContentType][]models.SearchResult)
	var discovered []classify.ContentType
	for i := range unique {
		ct := classify.Classify(unique[i])
		unique[i].ContentType = string(ct)
		if _, ok := grouped[ct]; !ok {
			discovered = append(discovered, ct)
		}
		grouped[ct] = append(grouped[ct], unique[i])
	}

	priority, ok := intentPriority[intent]
	if !ok {
		priority = intentPriority[search.IntentExploratory]
	}

	sections := make([]Section, 0, len(grouped))
	ranked := make(map[classify.ContentType]struct{}, len(priority))
	for _, ct := range priority {
		ranked[ct] = struct{}{}
		if rs := grouped[ct]; len(rs) > 0 {
			sections = append(sections, Section{Type: ct, Label: classify.Labels[ct], Results: rs})
		}
	}
	for _, ct := range discovered {
		if _, seen := ranked[ct]; seen {
			continue
		}
		sections = append(sections, Section{Type: ct, Label: classify.Labels[ct], Results: grouped[ct]})
	}
	return sections
}
