package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Platform represents a known job board platform.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformUnknown    Platform = "unknown"
)

// JobPosting is the text content of a job page.
type JobPosting struct {
	URL         string
	Platform    Platform
	Company     string
	Position    string
	Description string
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.Contains(host, "greenhouse.io"):
		return PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return PlatformLever
	case strings.Contains(host, "workday.com"), strings.Contains(host, "myworkdayjobs.com"):
		return PlatformWorkday
	default:
		return PlatformUnknown
	}
}

// PlatformContentSelectors returns content selectors for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{".job__description.body", ".job__description", ".job-description__content", "#content", ".job-post-container"}
	case PlatformLever:
		return []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"}
	case PlatformWorkday:
		return []string{"[data-automation-id='jobDescription']", ".job-description"}
	default:
		return JobPostingSelectors()
	}
}

// PlatformNoiseSelectors returns elements stripped before text extraction.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		".eeo-statement",
		".voluntary-disclosure",
		".social-share",
		".cookie-consent",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common, ".application--wrapper", ".voluntary-self-id", "#usa_self_id_section")
	case PlatformLever:
		return append(common, ".apply-section", ".posting-apply")
	case PlatformWorkday:
		return append(common, "[data-automation-id='applyButton']")
	default:
		return common
	}
}

// ParseJobPosting extracts the position, company and description of a job page.
func ParseJobPosting(urlStr, html string) (*JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	platform := DetectPlatform(urlStr)
	posting := &JobPosting{
		URL:      urlStr,
		Platform: platform,
		Company:  metaContent(doc, "og:site_name"),
		Position: metaContent(doc, "og:title"),
	}
	if posting.Position == "" {
		posting.Position = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if posting.Position == "" {
		posting.Position = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if posting.Company == "" {
		posting.Company = companyFromURL(urlStr, platform)
	}

	posting.Description = mainText(doc, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform))
	return posting, nil
}

func metaContent(doc *goquery.Document, property string) string {
	value, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return strings.TrimSpace(value)
}

// companyFromURL reads the board slug hosted platforms put in the first path segment.
func companyFromURL(urlStr string, platform Platform) string {
	if platform != PlatformGreenhouse && platform != PlatformLever {
		return ""
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}
