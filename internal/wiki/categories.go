package wiki

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const categoryPrefix = "Category:"

// Member types understood by list=categorymembers.
const (
	memberTypePage   = "page"
	memberTypeSubcat = "subcat"
)

// CrawlOptions bound a category crawl.
type CrawlOptions struct {
	// MaxDepth is how many subcategory levels to descend below the root.
	// Zero crawls only the root's own pages.
	MaxDepth int

	// Exclude lists subcategories to skip, with or without the "Category:"
	// prefix. The root itself is always crawled.
	Exclude []string

	// Concurrency bounds how many categories are listed at once. Values
	// below one mean sequential.
	Concurrency int

	// OnCategory, when set, is called once per visited category after its
	// listings have been merged, in visit order.
	OnCategory func(category string, pages, subcats int)
}

// CrawlResult holds everything a crawl discovered. Articles preserves
// first-seen order; when an article is reachable through several
// subcategories its provenance is the last category crawled.
type CrawlResult struct {
	Articles []ArticleRef
	Visited  []string
}

type crawlItem struct {
	title string
	depth int
}

type memberLists struct {
	pages   []member
	subcats []member
	err     error
}

// CrawlCategory walks the category tree breadth-first from root, collecting
// every visited category's pages. Cycles terminate through the visited set,
// which is checked before any work for a dequeued category. Categories at
// the same depth are listed concurrently, but results merge in dequeue order
// so the outcome is identical to a sequential walk.
func (c *Client) CrawlCategory(ctx context.Context, root string, opts CrawlOptions) (*CrawlResult, error) {
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, title := range opts.Exclude {
		exclude[normalizeCategory(title)] = struct{}{}
	}

	visited := make(map[string]struct{})
	var visitOrder []string

	// Articles keep their first-seen position while later crawls of the
	// same page overwrite the provenance.
	var order []int64
	byID := make(map[int64]ArticleRef)

	queue := []crawlItem{{title: normalizeCategory(root), depth: 0}}

	for len(queue) > 0 {
		// Drain the current level. Enqueued children all sit one depth
		// further down, so the front run of equal depths is the level.
		depth := queue[0].depth
		var wave []crawlItem
		for len(queue) > 0 && queue[0].depth == depth {
			item := queue[0]
			queue = queue[1:]
			if _, seen := visited[item.title]; seen {
				continue
			}
			visited[item.title] = struct{}{}
			visitOrder = append(visitOrder, item.title)
			wave = append(wave, item)
		}
		if len(wave) == 0 {
			continue
		}

		results, err := c.listLevel(ctx, wave, opts)
		if err != nil {
			return nil, err
		}

		for i, item := range wave {
			res := results[i]
			source := strings.TrimPrefix(item.title, categoryPrefix)
			for _, page := range res.pages {
				if _, seen := byID[page.PageID]; !seen {
					order = append(order, page.PageID)
				}
				byID[page.PageID] = ArticleRef{PageID: page.PageID, Title: page.Title, Category: source}
			}
			for _, sub := range res.subcats {
				if _, seen := visited[sub.Title]; seen {
					continue
				}
				if _, skip := exclude[sub.Title]; skip {
					continue
				}
				queue = append(queue, crawlItem{title: sub.Title, depth: item.depth + 1})
			}
			if opts.OnCategory != nil {
				opts.OnCategory(item.title, len(res.pages), len(res.subcats))
			}
		}
	}

	articles := make([]ArticleRef, 0, len(order))
	for _, id := range order {
		articles = append(articles, byID[id])
	}
	return &CrawlResult{Articles: articles, Visited: visitOrder}, nil
}

// listLevel fetches the member listings for one BFS level with a bounded
// worker pool. Results are positional so the caller can merge in order.
func (c *Client) listLevel(ctx context.Context, wave []crawlItem, opts CrawlOptions) ([]memberLists, error) {
	results := make([]memberLists, len(wave))

	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(wave) {
		workers = len(wave)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.listCategory(ctx, wave[i], opts.MaxDepth)
			}
		}()
	}

feed:
	for i := range wave {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl canceled: %w", err)
	}
	for i := range results {
		if results[i].err != nil {
			return nil, results[i].err
		}
	}
	return results, nil
}

// listCategory fetches one category's pages, and its subcategories when the
// crawl may still descend.
func (c *Client) listCategory(ctx context.Context, item crawlItem, maxDepth int) memberLists {
	var out memberLists
	out.pages, out.err = c.members(ctx, item.title, memberTypePage)
	if out.err != nil {
		return out
	}
	if item.depth < maxDepth {
		out.subcats, out.err = c.members(ctx, item.title, memberTypeSubcat)
	}
	return out
}

// members lists one category's members of the given type, following the
// cmcontinue token until the listing is complete.
func (c *Client) members(ctx context.Context, category, memberType string) ([]member, error) {
	var all []member
	token := ""
	for {
		params := map[string]string{
			"list":    "categorymembers",
			"cmtitle": category,
			"cmlimit": "max",
			"cmtype":  memberType,
		}
		if token != "" {
			params["cmcontinue"] = token
		}
		payload, err := c.query(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list %s members of %q: %w", memberType, category, err)
		}
		if payload.Query != nil {
			all = append(all, payload.Query.CategoryMembers...)
		}
		if payload.Continue == nil || payload.Continue.CmContinue == "" {
			break
		}
		token = payload.Continue.CmContinue
		c.logger.Debug("continuing category listing",
			zap.String("category", category),
			zap.String("cmcontinue", token))
	}
	return all, nil
}

// normalizeCategory ensures the "Category:" prefix the action API expects.
func normalizeCategory(title string) string {
	if strings.HasPrefix(title, categoryPrefix) {
		return title
	}
	return categoryPrefix + title
}
