// Package citation renders source attributions for retrieved documents.
package citation

import (
	"fmt"
	"strings"

	"wikibot/pkg"
)

// Header introduces the citation block in the rendered answer.
const Header = "**📚 참고 자료:**"

// Format renders the retrieved documents as a markdown source list. The
// citation style and link base come from the bot's index config. Documents
// keep the order supplied by the caller; no re-sorting happens here.
// An empty document list renders as an empty string.
func Format(documents []pkg.RetrievedDocument, config pkg.IndexConfig) string {
	if len(documents) == 0 {
		return ""
	}

	lines := make([]string, 0, len(documents)+1)
	lines = append(lines, Header)

	for i, doc := range documents {
		title := doc.Title
		if title == "" {
			title = fmt.Sprintf("문서 %d", i+1)
		}

		var line string
		switch config.CitationStyle {
		case pkg.CitationLinked:
			if url := linkURL(doc, config); url != "" {
				line = fmt.Sprintf("%d. [%s](%s)", i+1, title, url)
			} else {
				line = fmt.Sprintf("%d. %s", i+1, title)
			}
		case pkg.CitationPaged:
			if doc.Page != "" {
				line = fmt.Sprintf("%d. %s - p.%s", i+1, title, doc.Page)
			} else {
				line = fmt.Sprintf("%d. %s", i+1, title)
			}
		default:
			line = fmt.Sprintf("%d. %s", i+1, title)
		}

		if doc.LastModified != "" {
			line += fmt.Sprintf(" (수정일: %s)", doc.LastModified)
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// linkURL picks the document's own URL, or derives one from the doc id and
// the index's base URL (Confluence page ids).
func linkURL(doc pkg.RetrievedDocument, config pkg.IndexConfig) string {
	if doc.SourceURL != "" {
		return doc.SourceURL
	}
	if doc.DocID != "" && config.SourceBaseURL != "" {
		return config.SourceBaseURL + doc.DocID
	}
	return ""
}
