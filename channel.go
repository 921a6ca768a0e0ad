package crestwatch

import (
	"log/slog"
	"net/url"
	"strings"
)

// ChannelKind identifies a notification backend and its payload schema.
type ChannelKind string

// ChannelKind constants.
const (
	ChannelSlack ChannelKind = "slack"
	ChannelTeams ChannelKind = "teams"
)

// ParseChannelKind parses a channel kind name, case-insensitively.
// "msteams" is accepted as an alias for teams.
func ParseChannelKind(s string) (ChannelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slack":
		return ChannelSlack, nil
	case "teams", "msteams":
		return ChannelTeams, nil
	}
	return "", Errorf(ECONFIG, "unknown channel kind %q", s)
}

// DefaultHost returns the webhook origin used when a channel endpoint is
// configured as a bare path.
func (k ChannelKind) DefaultHost() string {
	switch k {
	case ChannelSlack:
		return "https://hooks.slack.com"
	case ChannelTeams:
		return "https://outlook.office.com"
	}
	return ""
}

// Channel is one configured notification target.
// Endpoint is secret: it is never included in String or log output.
type Channel struct {
	Name     string
	Kind     ChannelKind
	Endpoint string
}

// Validate returns an error if the channel is not usable.
func (c Channel) Validate() error {
	if c.Kind.DefaultHost() == "" {
		return Errorf(ECONFIG, "channel %q: unknown kind %q", c.label(), c.Kind)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return Errorf(ECONFIG, "channel %q: webhook endpoint required", c.label())
	}
	if _, err := c.URL(); err != nil {
		return err
	}
	return nil
}

// URL returns the absolute webhook URL. Bare paths are resolved against the
// kind's default host.
func (c Channel) URL() (string, error) {
	endpoint := strings.TrimSpace(c.Endpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", Errorf(ECONFIG, "channel %q: invalid webhook endpoint", c.label())
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", Errorf(ECONFIG, "channel %q: unsupported webhook scheme %q", c.label(), u.Scheme)
		}
		return u.String(), nil
	}

	base, err := url.Parse(c.Kind.DefaultHost())
	if err != nil || base.Host == "" {
		return "", Errorf(ECONFIG, "channel %q: no default host for kind %q", c.label(), c.Kind)
	}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return base.ResolveReference(u).String(), nil
}

// String returns the channel name and kind.
func (c Channel) String() string {
	return c.label() + "(" + string(c.Kind) + ")"
}

// LogValue implements slog.LogValuer.
func (c Channel) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", c.label()),
		slog.String("kind", string(c.Kind)),
	)
}

func (c Channel) label() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Kind)
}
