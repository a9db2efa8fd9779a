package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board.
type Platform string

// Known job boards
const (
	PlatformSaramin  Platform = "saramin"
	PlatformWanted   Platform = "wanted"
	PlatformJobKorea Platform = "jobkorea"
	PlatformCatch    Platform = "catch"
	PlatformUnknown  Platform = "unknown"
)

var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"saramin.co.kr", PlatformSaramin},
	{"wanted.co.kr", PlatformWanted},
	{"jobkorea.co.kr", PlatformJobKorea},
	{"catch.co.kr", PlatformCatch},
}

// DetectPlatform identifies the job board from a URL.
func DetectPlatform(rawURL string) Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range platformHosts {
		if host == h.suffix || strings.HasSuffix(host, "."+h.suffix) {
			return h.platform
		}
	}
	return PlatformUnknown
}

// IsSPA reports whether the board renders postings client-side, so a plain
// HTTP fetch returns little content.
func IsSPA(platform Platform) bool {
	return platform == PlatformWanted || platform == PlatformCatch
}

// PlatformContentSelectors returns content selectors for a board.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformSaramin:
		return []string{".jv_cont.jv_detail", ".user_content", ".wrap_jv_cont"}
	case PlatformWanted:
		return []string{"[class*='JobDescription']", "section[class*='JobContent']", "main"}
	case PlatformJobKorea:
		return []string{".artReadJobSum", ".tbRow", "#devTemplate", "article"}
	case PlatformCatch:
		return []string{".recruit_detail", "#recruitDetail", "main"}
	default:
		return JobPostingSelectors()
	}
}

// PlatformNoiseSelectors returns elements to strip before extracting text.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		".apply-button-container",
		".social-share",
		".share-buttons",
		".cookie-consent",
		".login-layer",
	}

	switch platform {
	case PlatformSaramin:
		return append(common, ".jv_relate", ".jv_howto", ".wrap_recommend")
	case PlatformWanted:
		return append(common, "aside", "[class*='CompanyInfo']", "[class*='Recommend']")
	case PlatformJobKorea:
		return append(common, ".relatedRecruit", ".devApplyBtn")
	default:
		return common
	}
}
