package fetch

import (
	"context"
	"io"
	"net/url"

	"github.com/temoto/robotstxt"
)

// maxRobotsSize bounds the robots.txt body we are willing to parse.
const maxRobotsSize = 512 * 1024

// allowed reports whether requests to u's origin may proceed.
// The first call per origin fetches /robots.txt; later calls use the cache.
// A missing or unreadable robots.txt allows everything. Only a rule that
// blocks "/" for our user agent blocks the origin.
func (c *Client) allowed(ctx context.Context, u *url.URL) bool {
	origin := u.Scheme + "://" + u.Host

	c.robotsMu.Lock()
	defer c.robotsMu.Unlock()

	if decision, ok := c.robots[origin]; ok {
		return decision
	}

	decision := c.checkRobots(ctx, origin)
	c.robots[origin] = decision

	c.logger.Debug("robots_checked", "origin", origin, "allowed", decision)
	return decision
}

// checkRobots fetches and evaluates robots.txt for origin.
func (c *Client) checkRobots(ctx context.Context, origin string) bool {
	robotsURL, err := url.Parse(origin + "/robots.txt")
	if err != nil {
		return true
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return true
	}

	resp, err := c.send(ctx, robotsURL)
	if err != nil {
		return true
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return true
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return true
	}

	return data.FindGroup(c.userAgent).Test("/")
}
