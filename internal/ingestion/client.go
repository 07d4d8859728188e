// Package ingestion pulls token activity snapshots from the upstream feed
// and lands them in the activity store on a fixed interval.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kol-sniper-dashboard/internal/domain"
)

// Default paging parameters for the upstream feed.
const (
	DefaultPerPage   = 1000
	DefaultPageDelay = 100 * time.Millisecond
)

// Timestamp layouts the feed is known to emit.
var feedTimeLayouts = []string{
	"2006-01-02 15:04:05.000Z",
	time.RFC3339Nano,
	time.RFC3339,
}

// FeedPage is one page of the paginated activity feed.
type FeedPage struct {
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
	Items      []feedToken `json:"items"`
}

type feedToken struct {
	ID           string      `json:"id"`
	TokenAddress string      `json:"token_address"`
	Name         string      `json:"name"`
	Symbol       string      `json:"symbol"`
	Decimals     int         `json:"decimals"`
	Supply       float64     `json:"supply"`
	ImageURL     string      `json:"image_url"`
	KolsCount    int         `json:"kols_count"`
	FirstKOLBuy  string      `json:"first_kol_buy"`
	LastKOLBuy   string      `json:"last_kol_buy"`
	KOLBuyers    []feedBuyer `json:"kol_buyers"`
	Created      string      `json:"created"`
	Updated      string      `json:"updated"`
	FetchedAt    string      `json:"fetched_at"`
}

type feedBuyer struct {
	Name               string  `json:"name"`
	WalletAddress      string  `json:"wallet_address"`
	Twitter            string  `json:"twitter"`
	ProfileImage       string  `json:"profile_image"`
	AvgBuyPrice        float64 `json:"avg_buy_price"`
	AvgSellPrice       float64 `json:"avg_sell_price"`
	AvgHoldTimeSeconds float64 `json:"avg_hold_time_seconds"`
	FirstBuyAt         string  `json:"first_buy_at"`
	LastAction         string  `json:"last_action"`
	PositionStatus     string  `json:"position_status"`
	RealizedPnlPercent float64 `json:"realized_pnl_percent"`
	RealizedPnlSOL     float64 `json:"realized_pnl_sol"`
	TotalBuys          int     `json:"total_buys"`
	TotalSells         int     `json:"total_sells"`
	TotalVolumeSOL     float64 `json:"total_volume_sol"`
}

// Client fetches token activity from the paginated feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	perPage    int
	pageDelay  time.Duration
}

// ClientOptions contains configuration for creating a Client.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client  // Default: http.Client with 30s timeout
	PerPage    int           // Default: 1000
	PageDelay  time.Duration // Default: 100ms between pages
}

// NewClient creates a feed client.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	pageDelay := opts.PageDelay
	if pageDelay == 0 {
		pageDelay = DefaultPageDelay
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: httpClient,
		perPage:    perPage,
		pageDelay:  pageDelay,
	}
}

// FetchPage retrieves a single feed page, newest records first.
func (c *Client) FetchPage(ctx context.Context, page int) (*FeedPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(c.perPage))
	params.Set("sort", "-created")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed page %d: unexpected status %s", page, resp.Status)
	}

	var feedPage FeedPage
	if err := json.NewDecoder(resp.Body).Decode(&feedPage); err != nil {
		return nil, fmt.Errorf("decoding feed page %d: %w", page, err)
	}
	return &feedPage, nil
}

// FetchAll walks every feed page and returns the mapped activity records.
// Pages are fetched with a short delay between them to stay under upstream
// rate limits; the walk stops at the first page error, returning what was
// fetched so far along with the error.
func (c *Client) FetchAll(ctx context.Context) ([]*domain.TokenActivity, error) {
	var records []*domain.TokenActivity
	page := 1

	for {
		feedPage, err := c.FetchPage(ctx, page)
		if err != nil {
			return records, err
		}
		for i := range feedPage.Items {
			records = append(records, feedPage.Items[i].toDomain())
		}

		if page >= feedPage.TotalPages {
			return records, nil
		}
		page++

		select {
		case <-ctx.Done():
			return records, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}
}

func (t *feedToken) toDomain() *domain.TokenActivity {
	activity := &domain.TokenActivity{
		TokenAddress: t.TokenAddress,
		Name:         t.Name,
		Symbol:       t.Symbol,
		Decimals:     t.Decimals,
		Supply:       t.Supply,
		ImageURL:     t.ImageURL,
		KolsCount:    t.KolsCount,
		FirstKOLBuy:  parseFeedTime(t.FirstKOLBuy),
		LastKOLBuy:   parseFeedTime(t.LastKOLBuy),
		CreatedAt:    parseFeedTime(t.Created),
		UpdatedAt:    parseFeedTime(t.Updated),
		FetchedAt:    parseFeedTime(t.FetchedAt),
	}
	for _, b := range t.KOLBuyers {
		activity.KOLBuyers = append(activity.KOLBuyers, &domain.KOLBuyer{
			Name:               b.Name,
			WalletAddress:      b.WalletAddress,
			Twitter:            b.Twitter,
			ProfileImage:       b.ProfileImage,
			AvgBuyPrice:        b.AvgBuyPrice,
			AvgSellPrice:       b.AvgSellPrice,
			AvgHoldTimeSeconds: b.AvgHoldTimeSeconds,
			FirstBuyAt:         parseFeedTime(b.FirstBuyAt),
			LastAction:         domain.LastAction(b.LastAction),
			PositionStatus:     domain.PositionStatus(b.PositionStatus),
			RealizedPnlPercent: b.RealizedPnlPercent,
			RealizedPnlSOL:     b.RealizedPnlSOL,
			TotalBuys:          b.TotalBuys,
			TotalSells:         b.TotalSells,
			TotalVolumeSOL:     b.TotalVolumeSOL,
		})
	}
	return activity
}

// parseFeedTime converts a feed timestamp to Unix ms, 0 when absent or
// unparseable.
func parseFeedTime(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range feedTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UnixMilli()
		}
	}
	return 0
}
