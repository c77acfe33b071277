package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobHTML = `<html>
<head>
	<title>Careers</title>
	<meta property="og:title" content="Senior Go Engineer">
	<meta property="og:site_name" content="Acme">
</head>
<body>
	<nav>Jobs Home</nav>
	<div class="job-description">
		<h2>About the role</h2>
		<p>Build   backend services.</p>
		<ul><li>Go</li><li>PostgreSQL</li></ul>
		<form>Apply now</form>
	</div>
	<footer>Footer</footer>
</body>
</html>`

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := NewFetcher(nil).URL(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/job", "file:///etc/passwd"} {
		_, err := NewFetcher(nil).URL(context.Background(), raw)
		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr, raw)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := NewFetcher(nil).URL(context.Background(), server.URL)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestJobPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(jobHTML))
	}))
	defer server.Close()

	posting, err := NewFetcher(nil).JobPage(context.Background(), server.URL+"/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer", posting.Position)
	assert.Equal(t, "Acme", posting.Company)
	assert.Equal(t, PlatformUnknown, posting.Platform)
	assert.Equal(t, "About the role\nBuild backend services.\n- Go\n- PostgreSQL", posting.Description)
}

func TestJobPage_EmptyDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><script>render()</script></body></html>"))
	}))
	defer server.Close()

	_, err := NewFetcher(nil).JobPage(context.Background(), server.URL)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "no job description found")
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
		<nav>Navigation</nav>
		<main><h1>Main Content</h1><p>This is the important text.</p></main>
		<footer>Footer</footer>
	</body></html>`

	text, err := ExtractMainText(html, []string{"main"})
	require.NoError(t, err)
	assert.Equal(t, "Main Content\nThis is the important text.", text)
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	text, err := ExtractMainText(`<html><body><div>Only <b>body</b> text</div></body></html>`, []string{".missing"})
	require.NoError(t, err)
	assert.Equal(t, "Only body text", text)
}

func TestExtractMainText_NoiseSelectors(t *testing.T) {
	html := `<html><body><main><p>Keep</p><div class="eeo-statement">Drop</div></main></body></html>`
	text, err := ExtractMainText(html, []string{"main"}, ".eeo-statement")
	require.NoError(t, err)
	assert.Equal(t, "Keep", text)
}
