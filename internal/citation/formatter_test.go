package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wikibot/pkg"
)

func TestFormatEmptyList(t *testing.T) {
	out := Format(nil, pkg.IndexConfig{CitationStyle: pkg.CitationLinked})
	assert.Equal(t, "", out)

	out = Format([]pkg.RetrievedDocument{}, pkg.IndexConfig{})
	assert.Equal(t, "", out)
}

func TestFormatLinkedWithSourceURL(t *testing.T) {
	docs := []pkg.RetrievedDocument{
		{Title: "업무 가이드", SourceURL: "https://confluence.example.com/display/AE/guide"},
	}
	out := Format(docs, pkg.IndexConfig{CitationStyle: pkg.CitationLinked})

	assert.Contains(t, out, Header)
	assert.Contains(t, out, "1. [업무 가이드](https://confluence.example.com/display/AE/guide)")
}

func TestFormatLinkedDerivesURLFromDocID(t *testing.T) {
	docs := []pkg.RetrievedDocument{
		{Title: "프로세스 문서", DocID: "123456"},
	}
	config := pkg.IndexConfig{
		CitationStyle: pkg.CitationLinked,
		SourceBaseURL: "https://confluence.example.com/pages/",
	}

	out := Format(docs, config)
	assert.Contains(t, out, "1. [프로세스 문서](https://confluence.example.com/pages/123456)")
}

func TestFormatLinkedWithoutAnyURLFallsBackToPlain(t *testing.T) {
	docs := []pkg.RetrievedDocument{{Title: "문서 제목"}}
	out := Format(docs, pkg.IndexConfig{CitationStyle: pkg.CitationLinked})
	assert.Contains(t, out, "1. 문서 제목")
	assert.NotContains(t, out, "](")
}

func TestFormatPaged(t *testing.T) {
	docs := []pkg.RetrievedDocument{
		{Title: "JESD79-5B.pdf", Page: "45"},
		{Title: "JEP106BJ.pdf"},
	}
	out := Format(docs, pkg.IndexConfig{CitationStyle: pkg.CitationPaged})

	assert.Contains(t, out, "1. JESD79-5B.pdf - p.45")
	assert.Contains(t, out, "2. JEP106BJ.pdf")
}

func TestFormatAppendsLastModifiedRegardlessOfStyle(t *testing.T) {
	docs := []pkg.RetrievedDocument{
		{Title: "용어집", LastModified: "2025-08-01"},
	}

	for _, style := range []pkg.CitationStyle{pkg.CitationLinked, pkg.CitationPaged, pkg.CitationPlain} {
		out := Format(docs, pkg.IndexConfig{CitationStyle: style})
		assert.Contains(t, out, "(수정일: 2025-08-01)")
	}
}

func TestFormatPreservesCallerOrder(t *testing.T) {
	docs := []pkg.RetrievedDocument{
		{Title: "둘째", Score: 0.2},
		{Title: "첫째", Score: 0.9},
	}
	out := Format(docs, pkg.IndexConfig{CitationStyle: pkg.CitationPlain})

	assert.Contains(t, out, "1. 둘째")
	assert.Contains(t, out, "2. 첫째")
}

func TestFormatUntitledDocumentGetsNumberedName(t *testing.T) {
	docs := []pkg.RetrievedDocument{{Content: "body only"}}
	out := Format(docs, pkg.IndexConfig{})
	assert.Contains(t, out, "1. 문서 1")
}
