package wiki

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/upstream"
)

// Config configures the action API client.
type Config struct {
	Upstream upstream.Config
	// SiteURL is the article site base used for revision permalinks.
	SiteURL string
}

// Client talks to the Wikipedia action API.
type Client struct {
	up      *upstream.Client
	siteURL string
	logger  *zap.Logger
}

// NewClient builds an action API client on the shared upstream machinery.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	siteURL := strings.TrimSuffix(cfg.SiteURL, "/")
	if siteURL == "" {
		siteURL = "https://en.wikipedia.org"
	}
	cfg.Upstream.API = upstream.APIAction
	return &Client{up: upstream.New(cfg.Upstream), siteURL: siteURL, logger: logger}
}

// queryResponse is the action API envelope for action=query requests.
type queryResponse struct {
	Error    *apiError      `json:"error"`
	Continue *continueToken `json:"continue"`
	Query    *queryBody     `json:"query"`
}

// apiError is the in-band rejection payload the action API returns with an
// HTTP 200.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type continueToken struct {
	CmContinue string `json:"cmcontinue"`
	Continue   string `json:"continue"`
}

type queryBody struct {
	CategoryMembers []member            `json:"categorymembers"`
	Pages           map[string]pageData `json:"pages"`
}

// member is one entry of a list=categorymembers response.
type member struct {
	PageID int64  `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

// pageData is one entry of the pages map. Missing is present (as an empty
// string) when the requested title resolves to no page.
type pageData struct {
	PageID     int64      `json:"pageid"`
	Missing    *string    `json:"missing"`
	Title      string     `json:"title"`
	Length     int64      `json:"length"`
	Extract    string     `json:"extract"`
	FullURL    string     `json:"fullurl"`
	Revisions  []revision `json:"revisions"`
	PageProps  *pageProps `json:"pageprops"`
	Categories []category `json:"categories"`
}

type revision struct {
	RevID     int64  `json:"revid"`
	ParentID  int64  `json:"parentid"`
	Timestamp string `json:"timestamp"`
}

type pageProps struct {
	WikibaseItem      string `json:"wikibase_item"`
	WikibaseShortDesc string `json:"wikibase-shortdesc"`
}

type category struct {
	NS    int    `json:"ns"`
	Title string `json:"title"`
}

// query runs one action=query request. It surfaces transport failures,
// terminal statuses, and in-band rejection payloads as typed errors.
func (c *Client) query(ctx context.Context, params map[string]string) (*queryResponse, error) {
	var out queryResponse
	resp, err := c.up.R().
		SetContext(ctx).
		SetQueryParam("action", "query").
		SetQueryParam("format", "json").
		SetQueryParams(params).
		SetResult(&out).
		Get("")
	if err != nil {
		return nil, c.up.TransportError(err)
	}
	if !resp.IsSuccess() {
		return nil, c.up.StatusError(resp)
	}
	if out.Error != nil {
		return nil, &upstream.Error{API: c.up.API, Code: out.Error.Code, Info: out.Error.Info}
	}
	return &out, nil
}

// firstPage returns the single page entry of a titles= query. The pages map
// is keyed by page ID; queries here always name exactly one title.
func firstPage(body *queryBody) (pageData, error) {
	if body == nil || len(body.Pages) == 0 {
		return pageData{}, fmt.Errorf("query returned no pages")
	}
	for _, page := range body.Pages {
		return page, nil
	}
	return pageData{}, fmt.Errorf("query returned no pages")
}
