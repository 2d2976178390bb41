package api

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"summoner-balancer/internal/config"
	"summoner-balancer/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/valyala/fasthttp"
)

// pastRankSelectors are tried in order. The first is op.gg's legacy profile
// layout, the second its current past-season list.
var pastRankSelectors = []string{
	"div.PastRankList div.TierRank",
	"ul[class*=past-rank] li",
}

type OPGGClient struct {
	baseURL  string
	platform string
	client   *fasthttp.Client
}

// PastRank is the most recent past-season rank shown on a profile.
type PastRank struct {
	Tier     domain.Tier
	Division domain.Division
	Found    bool
}

func NewOPGGClient(cfg *config.Config) *OPGGClient {
	return &OPGGClient{
		baseURL:  cfg.OPGGBaseURL,
		platform: strings.TrimRight(cfg.Platform, "0123456789"),
		client:   newHTTPClient(),
	}
}

// ProfileURL is the public profile link, e.g. https://www.op.gg/summoners/kr/Hide%20on%20bush-KR1.
func (c *OPGGClient) ProfileURL(id domain.RiotID) string {
	return fmt.Sprintf("%s/summoners/%s/%s-%s", c.baseURL, c.platform, url.PathEscape(id.GameName), url.PathEscape(id.TagLine))
}

func (c *OPGGClient) GetPastRank(ctx context.Context, id domain.RiotID) (PastRank, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.ProfileURL(id))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if err := do(ctx, c.client, req, resp); err != nil {
		return PastRank{}, err
	}
	if err := checkStatus("opgg", resp); err != nil {
		return PastRank{}, err
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return PastRank{}, fmt.Errorf("failed to decode opgg body: %w", err)
	}
	return ParsePastRank(body)
}

// ParsePastRank extracts the first past-season tier from a profile page.
// A page without a past-season block yields Found=false and no error.
func ParsePastRank(page []byte) (PastRank, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return PastRank{}, fmt.Errorf("failed to parse opgg page: %w", err)
	}

	for _, sel := range pastRankSelectors {
		var (
			rank PastRank
			done bool
		)
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if tier, div, ok := parseRankText(s.Text()); ok {
				rank = PastRank{Tier: tier, Division: div, Found: true}
				done = true
				return false
			}
			return true
		})
		if done {
			return rank, nil
		}
	}
	return PastRank{}, nil
}

// parseRankText finds "<tier> [division]" anywhere in text such as
// "S2023 gold 4" or "Platinum II".
func parseRankText(text string) (domain.Tier, domain.Division, bool) {
	fields := strings.Fields(text)
	for i, f := range fields {
		if _, err := domain.ParseTier(f); err != nil {
			continue
		}
		rank := f
		if i+1 < len(fields) {
			rank += " " + fields[i+1]
		}
		tier, div, err := domain.ParseRank(rank)
		if err != nil {
			return 0, domain.DivisionNone, false
		}
		return tier, div, true
	}
	return 0, domain.DivisionNone, false
}
