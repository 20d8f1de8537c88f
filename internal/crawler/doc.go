// Package crawler discovers press-release documents on paginated listing pages.
//
// # Architecture
//
// The Spider keeps a FIFO frontier seeded with one listing URL and a set of
// visited pages. Each page is parsed by a Parser, which returns:
//   - one DocumentRecord per anchor pointing at a PDF under the configured
//     URL prefix, titled by the anchor text and dated by the first date found
//     in the anchor's enclosing block
//   - the first anchor labelled as "next page", which is enqueued
//
// The walk stops when the frontier is empty or the page cap is reached.
// Results are deduplicated by (title, first file link).
//
// # Politeness
//
// The Spider does no throttling of its own. Rate limiting, retries and the
// robots.txt gate belong to the fetch.Client passed in as the Fetcher.
//
// # Usage
//
//	spider := crawler.NewSpider(client, crawler.WithMaxPages(5))
//	docs, err := spider.Crawl(ctx, "https://www.mospi.gov.in/press-release")
package crawler
