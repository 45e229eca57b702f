package services

import (
	"regexp"
	"strings"
)

// botPattern matches user agents of crawlers, link previewers, monitoring
// probes and headless browsers.
var botPattern = regexp.MustCompile(`(?i)(bot|crawl|spider|slurp|scrape|fetch|preview|archiver|monitor|` +
	`uptime|pingdom|lighthouse|headless|phantomjs|selenium|puppeteer|playwright|` +
	`curl/|wget/|python-requests|python-urllib|go-http-client|okhttp|java/|libwww|httpclient|axios/|node-fetch|` +
	`facebookexternalhit|embedly|quora link|outbrain|vkshare|w3c_validator|whatsapp|skypeuripreview|` +
	`google-structured-data|google-inspectiontool|mediapartners-google|feedfetcher|feedburner|ia_archiver)`)

// IsBot reports whether userAgent belongs to an automated client.
func IsBot(userAgent string) bool {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return false
	}
	return botPattern.MatchString(ua)
}
