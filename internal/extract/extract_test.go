package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersMainOverBody(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>CosIng annexes</title></head>
      <body>
        <nav>Nav should be ignored</nav>
        <main>
          <h1>Annexes</h1>
          <p>Annex II lists prohibited substances.</p>
        </main>
        <footer>Footer text</footer>
      </body>
    </html>`

	doc := FromHTML([]byte(html))
	if doc.Title != "CosIng annexes" {
		t.Fatalf("expected title 'CosIng annexes', got %q", doc.Title)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %q", len(doc.Blocks), doc.Blocks)
	}
	if doc.Blocks[1] != "Annex II lists prohibited substances." {
		t.Fatalf("unexpected paragraph block: %q", doc.Blocks[1])
	}
	if strings.Contains(text(doc), "Nav should be ignored") || strings.Contains(text(doc), "Footer text") {
		t.Fatalf("did not expect nav or footer text in extracted content")
	}
}

func TestFromHTML_FallbackToBody(t *testing.T) {
	html := `<html><head><title>No Main</title></head>
      <body><h2>Body Heading</h2><p>Body   paragraph
      spanning lines</p></body></html>`

	doc := FromHTML([]byte(html))
	if !strings.Contains(text(doc), "Body Heading") {
		t.Fatalf("expected to contain body heading")
	}
	if doc.Blocks[len(doc.Blocks)-1] != "Body paragraph spanning lines" {
		t.Fatalf("expected collapsed whitespace, got %q", doc.Blocks[len(doc.Blocks)-1])
	}
}

func TestFromHTML_NestedBlocksNotDuplicated(t *testing.T) {
	html := `<html><body><ul>
      <li><p>First item</p><p>continued</p></li>
      <li>Second item</li>
    </ul></body></html>`

	doc := FromHTML([]byte(html))
	joined := text(doc)
	if strings.Count(joined, "First item") != 1 {
		t.Fatalf("nested block text duplicated: %q", doc.Blocks)
	}
	if len(doc.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %q", doc.Blocks)
	}
}

func TestFromHTML_SkipsCookieBanner(t *testing.T) {
	html := `<html><body>
      <div class="cookie-consent"><p>We use cookies</p></div>
      <p>Restricted substances are listed in Annex III.</p>
    </body></html>`

	doc := FromHTML([]byte(html))
	if strings.Contains(text(doc), "cookies") {
		t.Fatalf("cookie banner text leaked: %q", doc.Blocks)
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("expected one block, got %q", doc.Blocks)
	}
}

func text(d Document) string {
	return strings.Join(d.Blocks, "\n\n")
}
