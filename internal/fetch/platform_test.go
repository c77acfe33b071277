package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://job-boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/acme/abc-def", PlatformLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", PlatformWorkday},
		{"https://acme.com/careers/123", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformSelectors(t *testing.T) {
	assert.Equal(t, JobPostingSelectors(), PlatformContentSelectors(PlatformUnknown))
	assert.Contains(t, PlatformContentSelectors(PlatformGreenhouse), ".job__description")
	assert.Contains(t, PlatformNoiseSelectors(PlatformLever), ".posting-apply")
	assert.Contains(t, PlatformNoiseSelectors(PlatformUnknown), "form")
}

func TestParseJobPosting_Greenhouse(t *testing.T) {
	html := `<html><head><title>Job Application for Backend Engineer at Acme</title></head><body>
		<div class="job__description body"><p>Own the billing platform.</p></div>
		<div class="application--wrapper">Apply</div>
	</body></html>`

	posting, err := ParseJobPosting("https://boards.greenhouse.io/acme/jobs/1", html)
	require.NoError(t, err)
	assert.Equal(t, PlatformGreenhouse, posting.Platform)
	assert.Equal(t, "acme", posting.Company)
	assert.Equal(t, "Job Application for Backend Engineer at Acme", posting.Position)
	assert.Equal(t, "Own the billing platform.", posting.Description)
}

func TestParseJobPosting_HeadingTitle(t *testing.T) {
	posting, err := ParseJobPosting("https://acme.com/careers/1", `<html><body><main><h1>Data Engineer</h1><p>Pipelines.</p></main></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", posting.Position)
	assert.Empty(t, posting.Company)
	assert.Equal(t, "Data Engineer\nPipelines.", posting.Description)
}
