// Package extract parses raw HTML into a page title and either a flat main
// content blob or a list of titled sections. It never fails: the worst case
// is a single section holding all visible text.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mainContentSelector designates the primary content container on the
// documentation pages this assistant ingests.
const mainContentSelector = "article#_content"

const chromeSelector = "nav, header, footer, aside, script, style"

// Section is one titled slice of a page.
type Section struct {
	Title   string
	Content string
}

// Title returns the page title, or "" when the document has none.
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// MainContent returns the text of the primary content container with its
// navigation and decorative elements stripped. When the container is absent
// it falls back to concatenated paragraph text, then to all visible text.
func MainContent(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	article := doc.Find(mainContentSelector).First()
	if article.Length() > 0 {
		article.Find(chromeSelector).Remove()
		return normalizeBlock(article.Text())
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := normalizeInline(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n")
	}

	return normalizeBlock(doc.Text())
}

// Sections splits the page into titled sections. Inside the primary
// container it prefers heading-level sub-containers, then headings with
// their following siblings, then the whole container. Without the primary
// container it sections by paragraph. Sections with no heading text get a
// synthesized "Section N" title.
func Sections(html string) []Section {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []Section{{Title: "Untitled Section", Content: ""}}
	}

	article := doc.Find(mainContentSelector).First()
	if article.Length() == 0 {
		return paragraphSections(doc)
	}

	article.Find(chromeSelector).Remove()

	containers := article.Find("div[class*=h2-container]")
	if containers.Length() > 0 {
		return containerSections(containers)
	}

	headings := article.Find("h1, h2, h3, h4, h5, h6")
	if headings.Length() > 0 {
		return headingSections(headings)
	}

	return []Section{{Title: "Untitled Section", Content: normalizeBlock(article.Text())}}
}

func containerSections(containers *goquery.Selection) []Section {
	var sections []Section
	containers.Each(func(i int, container *goquery.Selection) {
		heading := container.Find("h1, h2, h3, h4, h5, h6").First()
		title := normalizeInline(heading.Text())
		if heading.Length() > 0 {
			heading.Remove()
		}
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		sections = append(sections, Section{
			Title:   title,
			Content: normalizeBlock(container.Text()),
		})
	})
	return sections
}

func headingSections(headings *goquery.Selection) []Section {
	var sections []Section
	headings.Each(func(i int, heading *goquery.Selection) {
		title := normalizeInline(heading.Text())
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}

		var parts []string
		for sibling := heading.Next(); sibling.Length() > 0; sibling = sibling.Next() {
			if isHeading(goquery.NodeName(sibling)) {
				break
			}
			if text := normalizeInline(sibling.Text()); text != "" {
				parts = append(parts, text)
			}
		}

		sections = append(sections, Section{
			Title:   title,
			Content: strings.Join(parts, "\n"),
		})
	})
	return sections
}

func paragraphSections(doc *goquery.Document) []Section {
	var sections []Section
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := normalizeInline(p.Text()); text != "" {
			sections = append(sections, Section{
				Title:   fmt.Sprintf("Section %d", len(sections)+1),
				Content: text,
			})
		}
	})
	if len(sections) == 0 {
		sections = append(sections, Section{
			Title:   "Untitled Section",
			Content: normalizeBlock(doc.Text()),
		})
	}
	return sections
}

func isHeading(name string) bool {
	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// normalizeInline collapses all whitespace in a short text run.
func normalizeInline(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// normalizeBlock trims a multi-line text block and drops blank lines while
// preserving line structure.
func normalizeBlock(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}
