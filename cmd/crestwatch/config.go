package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/fwojciec/crestwatch"
	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is Crestron's firmware and software search listing.
const DefaultSourceURL = "https://crestron.com/en-US/Support/Search-Results?c=4&m=10&q=&o=0"

// Config is the validated configuration of a run.
type Config struct {
	SourceURL    string
	Channels     []crestwatch.Channel
	Browser      bool
	WaitSelector string
	Timeout      time.Duration
	Concurrency  int
	WebhookRPS   float64
	StrictKinds  bool
	DryRun       bool
}

// Validate returns an ECONFIG error describing the first problem found.
func (c Config) Validate() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return crestwatch.Errorf(crestwatch.ECONFIG, "invalid listing URL %q", c.SourceURL)
	}
	if len(c.Channels) == 0 {
		return crestwatch.Errorf(crestwatch.ECONFIG,
			"no notification channel configured: set SLACK_WEBHOOK_PATH, MSTEAMS_WEBHOOK_PATH or --config")
	}
	seen := make(map[string]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if err := ch.Validate(); err != nil {
			return err
		}
		if seen[ch.Name] {
			return crestwatch.Errorf(crestwatch.ECONFIG, "duplicate channel name %q", ch.Name)
		}
		seen[ch.Name] = true
	}
	if c.Timeout <= 0 {
		return crestwatch.Errorf(crestwatch.ECONFIG, "timeout must be positive")
	}
	if c.Concurrency <= 0 {
		return crestwatch.Errorf(crestwatch.ECONFIG, "concurrency must be positive")
	}
	return nil
}

// BaseURL returns the origin of the listing URL, which relative record links
// resolve against.
func (c Config) BaseURL() string {
	u, err := url.Parse(c.SourceURL)
	if err != nil {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}

// Config builds the run configuration from flags and the optional channel file.
func (c *RunCmd) Config() (Config, error) {
	cfg := Config{
		SourceURL:    c.URL,
		Browser:      c.Browser,
		WaitSelector: c.WaitSelector,
		Timeout:      c.Timeout,
		Concurrency:  c.Concurrency,
		WebhookRPS:   c.WebhookRPS,
		StrictKinds:  c.StrictKinds,
		DryRun:       c.DryRun,
	}

	if c.SlackWebhook != "" {
		cfg.Channels = append(cfg.Channels, crestwatch.Channel{
			Name:     "slack",
			Kind:     crestwatch.ChannelSlack,
			Endpoint: c.SlackWebhook,
		})
	}
	if c.TeamsWebhook != "" {
		cfg.Channels = append(cfg.Channels, crestwatch.Channel{
			Name:     "teams",
			Kind:     crestwatch.ChannelTeams,
			Endpoint: c.TeamsWebhook,
		})
	}

	if c.ConfigFile != "" {
		channels, err := LoadChannelFile(c.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Channels = append(cfg.Channels, channels...)
	}

	return cfg, nil
}

// ChannelFile is the YAML channel configuration.
//
//	channels:
//	  - name: av-team
//	    kind: teams
//	    endpoint_env: AV_TEAMS_WEBHOOK
type ChannelFile struct {
	Channels []ChannelEntry `yaml:"channels"`
}

// ChannelEntry configures one channel. EndpointEnv names an environment
// variable holding the endpoint, keeping the secret out of the file.
type ChannelEntry struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Endpoint    string `yaml:"endpoint"`
	EndpointEnv string `yaml:"endpoint_env"`
}

// LoadChannelFile reads channels from a YAML file.
func LoadChannelFile(path string) ([]crestwatch.Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crestwatch.Errorf(crestwatch.ECONFIG, "read channel file: %v", err)
	}
	return ParseChannelFile(data)
}

// ParseChannelFile parses YAML channel configuration.
func ParseChannelFile(data []byte) ([]crestwatch.Channel, error) {
	var file ChannelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, crestwatch.Errorf(crestwatch.ECONFIG, "parse channel file: %v", err)
	}

	channels := make([]crestwatch.Channel, 0, len(file.Channels))
	for i, entry := range file.Channels {
		kind, err := crestwatch.ParseChannelKind(entry.Kind)
		if err != nil {
			return nil, crestwatch.Errorf(crestwatch.ECONFIG, "channel %d: %s", i+1, crestwatch.ErrorMessage(err))
		}

		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", kind, i+1)
		}

		endpoint := entry.Endpoint
		if entry.EndpointEnv != "" {
			endpoint = os.Getenv(entry.EndpointEnv)
			if endpoint == "" {
				return nil, crestwatch.Errorf(crestwatch.ECONFIG, "channel %q: %s is not set", name, entry.EndpointEnv)
			}
		}

		channels = append(channels, crestwatch.Channel{Name: name, Kind: kind, Endpoint: endpoint})
	}
	return channels, nil
}
