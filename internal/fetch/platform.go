package fetch

import (
	"net/url"
	"strings"
)

// Platform is a known job board.
type Platform string

// Recognized platforms.
const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformUnknown    Platform = "unknown"
)

type platformRule struct {
	platform Platform
	hosts    []string
	content  []string
	noise    []string
}

var platformRules = []platformRule{
	{
		platform: PlatformGreenhouse,
		hosts:    []string{"greenhouse.io"},
		content:  []string{".job__description.body", ".job__description", ".job-description__content", "#content", ".job-post-container"},
		noise:    []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	{
		platform: PlatformLever,
		hosts:    []string{"lever.co"},
		content:  []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		noise:    []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	{
		platform: PlatformWorkday,
		hosts:    []string{"workday.com", "myworkdayjobs.com"},
		content:  []string{"[data-automation-id='jobDescription']", ".job-description"},
		noise:    []string{"[data-automation-id='applyButton']", ".application-section"},
	},
}

// commonNoise is removed on every platform: application forms, EEO text, share
// buttons and consent banners.
var commonNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	".legal-disclosure",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the job board from a URL.
func DetectPlatform(urlStr string) Platform {
	if r, ok := ruleFor(urlStr); ok {
		return r.platform
	}
	return PlatformUnknown
}

// ContentSelectors returns the content selectors to try for p.
func ContentSelectors(p Platform) []string {
	for _, r := range platformRules {
		if r.platform == p {
			return r.content
		}
	}
	return JobPostingSelectors()
}

// NoiseSelectors returns the selectors removed before extraction for p.
func NoiseSelectors(p Platform) []string {
	out := append([]string{}, commonNoise...)
	for _, r := range platformRules {
		if r.platform == p {
			out = append(out, r.noise...)
		}
	}
	return out
}

func ruleFor(urlStr string) (platformRule, bool) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return platformRule{}, false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, r := range platformRules {
		for _, h := range r.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return r, true
			}
		}
	}
	return platformRule{}, false
}
