// Package config loads the application settings consumed by the live testing packages.
//
// Settings come from the [settings] table of an optional TOML file:
//
//	[settings]
//	"LiveTesting.WebsitePath" = "/srv/site"
//
// and are overridden by environment variables whose names are the setting names upper-cased
// with dots replaced by underscores (LIVETESTING_WEBSITEPATH for the example above).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// WebsitePathSetting names the setting that holds the physical path of the default application.
	WebsitePathSetting = "LiveTesting.WebsitePath"
	// ApplicationIDSetting and VirtualPathSetting let the check runner host the site under a
	// different id or virtual path.
	ApplicationIDSetting = "LiveTesting.ApplicationId"
	VirtualPathSetting   = "LiveTesting.VirtualPath"
)

// KnownSettings are always checked for environment overrides, even if the file doesn't mention them.
var KnownSettings = []string{WebsitePathSetting, ApplicationIDSetting, VirtualPathSetting}

// Settings is a read-only view of named string settings.
type Settings map[string]string

type fileConfig struct {
	Settings map[string]string `toml:"settings"`
}

// Get returns the named setting and whether it was present. A setting that is present but
// blank counts as absent.
func (s Settings) Get(name string) (string, bool) {
	v, ok := s[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// With returns a copy of s with name set to value.
func (s Settings) With(name, value string) Settings {
	ret := make(Settings, len(s)+1)
	for k, v := range s {
		ret[k] = v
	}
	ret[name] = value
	return ret
}

// Load reads settings from path, then applies environment overrides. An empty path means
// environment only. A path that does not exist is an error.
func Load(path string) (Settings, error) {
	base := Settings{}
	if path != "" {
		var raw fileConfig
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("load config: %w", err)
		}
		for k, v := range raw.Settings {
			base[k] = v
		}
	}
	return WithEnvironment(base, os.LookupEnv), nil
}

// WithEnvironment returns a copy of base in which every known or already-present setting is
// replaced by its environment variable, if lookup finds one.
func WithEnvironment(base Settings, lookup func(string) (string, bool)) Settings {
	ret := make(Settings, len(base))
	for k, v := range base {
		ret[k] = v
	}
	names := append([]string(nil), KnownSettings...)
	for k := range base {
		names = append(names, k)
	}
	for _, name := range names {
		if v, ok := lookup(EnvName(name)); ok {
			ret[name] = v
		}
	}
	return ret
}

// EnvName returns the environment variable consulted for a setting.
func EnvName(setting string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(setting))
}
