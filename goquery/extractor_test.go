package goquery_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/crestwatch"
	"github.com/fwojciec/crestwatch/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(t *testing.T, opts ...goquery.Option) *goquery.Extractor {
	t.Helper()
	e, err := goquery.NewExtractor("", opts...)
	require.NoError(t, err)
	return e
}

func resultItem(name, href, date, kind string) string {
	return fmt.Sprintf(`
<div class="search-result">
	<div class="resource-search-name"><a href="%s">%s</a></div>
	<div class="resource-search-date">%s</div>
	<div class="resource-search-type">%s</div>
</div>`, href, name, date, kind)
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts records in document order with absolute links", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html><html><body><div class="results">` +
			resultItem("Update1", "/a", "2024-01-01", "Firmware") +
			resultItem("Update2", "/b", "2024-01-02", "Software") +
			`</div></body></html>`

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 2)
		assert.Equal(t, crestwatch.Record{
			Name: "Update1",
			Link: "https://crestron.com/a",
			Date: "2024-01-01",
			Kind: "Firmware",
		}, set[0])
		assert.Equal(t, crestwatch.Record{
			Name: "Update2",
			Link: "https://crestron.com/b",
			Date: "2024-01-02",
			Kind: "Software",
		}, set[1])
	})

	t.Run("trims surrounding whitespace from text", func(t *testing.T) {
		t.Parallel()

		html := `<div class="search-result">
			<span class="resource-search-name">
				<a href=" /en-US/Support/Software/fw-1 ">
					DM-NVX Firmware
				</a>
			</span>
			<span class="resource-search-date">
				01/02/2024
			</span>
		</div>`

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 1)
		assert.Equal(t, "DM-NVX Firmware", set[0].Name)
		assert.Equal(t, "01/02/2024", set[0].Date)
		assert.Equal(t, "https://crestron.com/en-US/Support/Software/fw-1", set[0].Link)
	})

	t.Run("keeps absolute links unchanged", func(t *testing.T) {
		t.Parallel()

		html := resultItem("Update1", "https://downloads.crestron.com/fw.zip", "2024-01-01", "Firmware")

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 1)
		assert.Equal(t, "https://downloads.crestron.com/fw.zip", set[0].Link)
	})

	t.Run("container without sub-fields still yields a record", func(t *testing.T) {
		t.Parallel()

		html := `<div class="search-result"><p>nothing useful</p></div>` +
			resultItem("Update1", "/a", "2024-01-01", "Firmware")

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 2)
		assert.Equal(t, crestwatch.Record{Link: "https://crestron.com"}, set[0])
		assert.Equal(t, "Update1", set[1].Name)
	})

	t.Run("anchor without href resolves to the base origin", func(t *testing.T) {
		t.Parallel()

		html := `<div class="search-result"><div class="resource-search-name"><a>Update1</a></div></div>`

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 1)
		assert.Equal(t, "Update1", set[0].Name)
		assert.Equal(t, "https://crestron.com", set[0].Link)
	})

	t.Run("non-http hrefs resolve to the base origin", func(t *testing.T) {
		t.Parallel()

		html := resultItem("Update1", "javascript:void(0)", "", "")

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 1)
		assert.Equal(t, "https://crestron.com", set[0].Link)
	})

	t.Run("takes the first match of each sub-node", func(t *testing.T) {
		t.Parallel()

		html := `<div class="search-result">
			<div class="resource-search-name"><a href="/first">First</a><a href="/second">Second</a></div>
			<div class="resource-search-type">Firmware</div>
			<div class="resource-search-type">Software</div>
		</div>`

		set := newExtractor(t).Extract(html)

		require.Len(t, set, 1)
		assert.Equal(t, "First", set[0].Name)
		assert.Equal(t, "https://crestron.com/first", set[0].Link)
		assert.Equal(t, crestwatch.Kind("Firmware"), set[0].Kind)
	})

	t.Run("page without results yields an empty set", func(t *testing.T) {
		t.Parallel()

		set := newExtractor(t).Extract(`<html><body><p>No results</p></body></html>`)

		assert.NotNil(t, set)
		assert.Empty(t, set)
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		inputs := []string{
			"",
			"not html at all",
			`<div class="search-result"><a href="/a">unterminated`,
			`<<<>>><div class="search-result"></span></td></div></div>`,
			strings.Repeat(`<div class="search-result">`, 50),
		}

		for _, html := range inputs {
			set := newExtractor(t).Extract(html)
			assert.NotNil(t, set, "input %q", html)
		}
	})

	t.Run("record count equals container count", func(t *testing.T) {
		t.Parallel()

		for n := 0; n < 12; n++ {
			var b strings.Builder
			b.WriteString("<html><body>")
			for i := 0; i < n; i++ {
				switch i % 3 {
				case 0:
					b.WriteString(resultItem(fmt.Sprintf("U%d", i), fmt.Sprintf("/u/%d", i), "2024-01-01", "Firmware"))
				case 1:
					b.WriteString(`<div class="search-result"></div>`)
				default:
					b.WriteString(`<li class="search-result"><span class="resource-search-date">x</span></li>`)
				}
			}
			b.WriteString("</body></html>")

			set := newExtractor(t).Extract(b.String())
			assert.Len(t, set, n)
		}
	})
}

func TestExtractor_Options(t *testing.T) {
	t.Parallel()

	t.Run("resolves against a custom base URL", func(t *testing.T) {
		t.Parallel()

		e, err := goquery.NewExtractor("http://127.0.0.1:8080")
		require.NoError(t, err)

		set := e.Extract(resultItem("Update1", "/a", "", ""))

		require.Len(t, set, 1)
		assert.Equal(t, "http://127.0.0.1:8080/a", set[0].Link)
	})

	t.Run("custom selectors override defaults", func(t *testing.T) {
		t.Parallel()

		e := newExtractor(t, goquery.WithSelectors(goquery.Selectors{
			Container: "article.update",
			Name:      "h2 a",
		}))

		html := `<article class="update">
			<h2><a href="/x">Renamed</a></h2>
			<div class="resource-search-date">2024-03-03</div>
		</article>`
		set := e.Extract(html)

		require.Len(t, set, 1)
		assert.Equal(t, "Renamed", set[0].Name)
		assert.Equal(t, "2024-03-03", set[0].Date)
	})

	t.Run("rejects relative base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewExtractor("/relative")

		assert.Equal(t, crestwatch.EINVALID, crestwatch.ErrorCode(err))
	})
}
