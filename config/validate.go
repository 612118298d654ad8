package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IvanTurko/perpstream-go/sdkerr"
)

// channel -> required feed fields
var feedRequirements = map[string][]string{
	"candle":       {"coin", "interval"},
	"l2Book":       {"coin"},
	"trades":       {"coin"},
	"bbo":          {"coin"},
	"allMids":      nil,
	"userFills":    {"user"},
	"liquidations": {"user"},
}

// channels whose wire subscription belongs to another channel
var wireChannels = map[string]string{
	"liquidations": "userFills",
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return invalid("url %q: %v", c.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return invalid("url scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.WriteTimeout <= 0 {
		return invalid("write_timeout must be > 0")
	}
	if c.ReadBuffer < 1 {
		return invalid("read_buffer must be >= 1")
	}
	if c.ReadLimit < 0 {
		return invalid("read_limit must be >= 0")
	}
	if c.PingInterval <= 0 {
		return invalid("ping_interval must be > 0")
	}
	if c.Reconnect.BaseDelay <= 0 {
		return invalid("reconnect.base_delay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return invalid("reconnect.max_delay (%s) must be >= reconnect.base_delay (%s)",
			c.Reconnect.MaxDelay, c.Reconnect.BaseDelay)
	}

	for i, f := range c.Feeds {
		if err := f.validate(fmt.Sprintf("feeds[%d]", i)); err != nil {
			return err
		}
	}
	return c.validateFeedSet()
}

// validateFeedSet rejects feeds that would share one wire subscription and
// single feeds that share their channel with any other feed.
func (c *Config) validateFeedSet() error {
	seen := make(map[string]int, len(c.Feeds))
	perChannel := make(map[string][]int)
	for i, f := range c.Feeds {
		key := f.subscriptionKey()
		if j, ok := seen[key]; ok {
			return invalid("feeds[%d] duplicates feeds[%d]: both subscribe %s", i, j, key)
		}
		seen[key] = i
		wire := f.wireChannel()
		perChannel[wire] = append(perChannel[wire], i)
	}

	for wire, idx := range perChannel {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			if c.Feeds[i].Single {
				return invalid("feeds[%d] is single but channel %s has %d feeds", i, wire, len(idx))
			}
		}
	}
	return nil
}

func (f *FeedConfig) wireChannel() string {
	if w, ok := wireChannels[f.Channel]; ok {
		return w
	}
	return f.Channel
}

// subscriptionKey identifies the wire subscription a feed opens. Addresses
// compare case-insensitively.
func (f *FeedConfig) subscriptionKey() string {
	values := map[string]string{
		"coin":     f.Coin,
		"interval": f.Interval,
		"user":     strings.ToLower(f.User),
	}
	parts := []string{f.wireChannel()}
	for _, field := range feedRequirements[f.Channel] {
		parts = append(parts, field+"="+values[field])
	}
	return strings.Join(parts, " ")
}

func (f *FeedConfig) validate(prefix string) error {
	required, ok := feedRequirements[f.Channel]
	if !ok {
		return invalid("%s.channel %q is not supported", prefix, f.Channel)
	}
	values := map[string]string{
		"coin":     f.Coin,
		"interval": f.Interval,
		"user":     f.User,
	}
	for _, field := range required {
		if values[field] == "" {
			return invalid("%s.%s is required for channel %s", prefix, field, f.Channel)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return sdkerr.New(subsys, "Validate", sdkerr.ErrConfiguration, nil).
		WithMessage(fmt.Sprintf(format, args...))
}
