package extractor

import (
	"regexp"
	"strings"
)

// blockPhrases are shown by captcha and bot-protection interstitials.
var blockPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)captcha`),
	regexp.MustCompile(`(?i)verify (?:that )?you are (?:a )?human`),
	regexp.MustCompile(`(?i)are you a robot`),
	regexp.MustCompile(`(?i)robot check`),
	regexp.MustCompile(`(?i)enter the characters you see below`),
	regexp.MustCompile(`(?i)access denied`),
	regexp.MustCompile(`(?i)checking your browser`),
	regexp.MustCompile(`(?i)unusual traffic`),
	regexp.MustCompile(`(?i)request unsuccessful\. incapsula`),
	regexp.MustCompile(`(?i)pardon our interruption`),
}

// LooksBlocked reports whether the page is most likely a bot-protection
// interstitial rather than a product page. It needs two distinct phrases,
// or one on a page with very little visible text.
func LooksBlocked(p *Page) bool {
	text := strings.ToLower(p.Doc.Find("title").Text() + " " + p.Text())
	hits := 0
	for _, re := range blockPhrases {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits >= 2 || (hits == 1 && len(text) < 2000)
}
