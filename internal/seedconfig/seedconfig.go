// Package seedconfig loads the crawl seed file (spec.md §6): the
// allow-listed hosts and the per-source crawl configuration.
package seedconfig

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Source is one seed-file entry describing a list page, its link-selection
// regexes and per-source caps.
type Source struct {
	URL     string   `yaml:"url"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	MaxNew  int      `yaml:"max_new,omitempty"`
	Discover string  `yaml:"discover,omitempty"`
	Query    string  `yaml:"query,omitempty"`
}

// Seed is the top-level seed file contract. RSSFeeds is a supplement
// beyond the minimal allowed_hosts/sources contract: the RSS lane (C8
// step 2) needs its own list of feed URLs, distinct from the crawl
// lane's list-page sources.
type Seed struct {
	AllowedHosts []string `yaml:"allowed_hosts"`
	Sources      []Source `yaml:"sources"`
	RSSFeeds     []string `yaml:"rss_feeds,omitempty"`
}

// Load reads and parses the YAML seed file at path.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	return &seed, nil
}

// CompiledSource precompiles a Source's include/exclude regex lists so
// the crawl lane only pays the compile cost once per run.
type CompiledSource struct {
	Source
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// Compile precompiles s's include/exclude regex lists. An invalid regex
// is dropped with the error reported to the caller; callers typically log
// and skip the source rather than aborting the run for one bad pattern.
func Compile(s Source) (CompiledSource, error) {
	cs := CompiledSource{Source: s}
	for _, pattern := range s.Include {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return cs, fmt.Errorf("compile include %q: %w", pattern, err)
		}
		cs.include = append(cs.include, re)
	}
	for _, pattern := range s.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return cs, fmt.Errorf("compile exclude %q: %w", pattern, err)
		}
		cs.exclude = append(cs.exclude, re)
	}
	return cs, nil
}

// Matches applies the include/exclude rule: include requires at least one
// match (vacuously true when no include patterns are configured); exclude
// rejects on any match.
func (cs CompiledSource) Matches(url string) bool {
	if len(cs.include) > 0 {
		matched := false
		for _, re := range cs.include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range cs.exclude {
		if re.MatchString(url) {
			return false
		}
	}
	return true
}
