package search

import (
	"github.com/bytedance/sonic"

	"wikibot/pkg"
)

// The search endpoint has returned its hit list under several different
// envelopes across releases. Each shape gets one matcher; matchers are
// attempted in order and the first one that structurally matches wins.
// When none match the caller surfaces pkg.ErrShapeMismatch instead of
// silently returning an empty list.

type shapeMatcher struct {
	name  string
	match func(data []byte) ([]pkg.RetrievedDocument, bool)
}

var shapeMatchers = []shapeMatcher{
	{name: "message_wrapped", match: matchMessageWrapped},
	{name: "es_envelope", match: matchEnvelope},
	{name: "flat_wrapper", match: matchFlatWrapper},
}

// normalizeResponse converts a raw response body into documents, trying
// each known shape in order.
func normalizeResponse(data []byte) ([]pkg.RetrievedDocument, string, bool) {
	for _, m := range shapeMatchers {
		if docs, ok := m.match(data); ok {
			return docs, m.name, true
		}
	}
	return nil, "", false
}

type esEnvelope struct {
	Hits *struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

type esHit struct {
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

// matchMessageWrapped handles the envelope nested inside a "message" field
// that itself holds a JSON string.
func matchMessageWrapped(data []byte) ([]pkg.RetrievedDocument, bool) {
	var outer struct {
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(data, &outer); err != nil || outer.Message == "" {
		return nil, false
	}
	return matchEnvelope([]byte(outer.Message))
}

// matchEnvelope handles the plain Elasticsearch hits.hits envelope.
func matchEnvelope(data []byte) ([]pkg.RetrievedDocument, bool) {
	var env esEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil || env.Hits == nil {
		return nil, false
	}

	docs := make([]pkg.RetrievedDocument, 0, len(env.Hits.Hits))
	for _, hit := range env.Hits.Hits {
		doc := documentFromFields(hit.Source)
		doc.Score = hit.Score
		if doc.DocID == "" {
			doc.DocID = hit.ID
		}
		if doc.Content != "" {
			docs = append(docs, doc)
		}
	}
	return docs, true
}

// matchFlatWrapper handles the flat wrapper variants: a top-level list of
// document objects under results, documents, data, result or payload.
func matchFlatWrapper(data []byte) ([]pkg.RetrievedDocument, bool) {
	var wrapper struct {
		Results   []map[string]any `json:"results"`
		Documents []map[string]any `json:"documents"`
		Data      []map[string]any `json:"data"`
		Result    []map[string]any `json:"result"`
		Payload   []map[string]any `json:"payload"`
	}
	if err := sonic.Unmarshal(data, &wrapper); err != nil {
		return nil, false
	}

	var items []map[string]any
	switch {
	case wrapper.Results != nil:
		items = wrapper.Results
	case wrapper.Documents != nil:
		items = wrapper.Documents
	case wrapper.Data != nil:
		items = wrapper.Data
	case wrapper.Result != nil:
		items = wrapper.Result
	case wrapper.Payload != nil:
		items = wrapper.Payload
	default:
		return nil, false
	}

	docs := make([]pkg.RetrievedDocument, 0, len(items))
	for _, item := range items {
		doc := documentFromFields(item)
		doc.Score = floatField(item, "score", "relevance_score")
		if doc.Content != "" {
			docs = append(docs, doc)
		}
	}
	return docs, true
}

// documentFromFields extracts a document from one hit, trying the candidate
// keys each index variant has been seen to use.
func documentFromFields(fields map[string]any) pkg.RetrievedDocument {
	return pkg.RetrievedDocument{
		Content:      stringField(fields, "merge_title_content", "content", "body", "text"),
		Title:        stringField(fields, "title", "source"),
		SourceURL:    stringField(fields, "url", "confluence_url", "source_url"),
		DocID:        stringField(fields, "doc_id"),
		Page:         stringField(fields, "page"),
		LastModified: stringField(fields, "last_modified"),
	}
}

func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func floatField(fields map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := fields[key].(float64); ok {
			return v
		}
	}
	return 0
}
