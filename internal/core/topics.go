package core

// topics.go parses topic preference configuration from the forms it arrives
// in: NAME=value CLI flags and YAML topic files. Order is preserved in both
// cases because topic order determines output column order.

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ParsePreference normalizes a user-supplied preference string.
// It accepts the wire literals ("OPT_IN", "OPT_OUT") as well as the relaxed
// spellings opt_in, opt-in, and optin in any case.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "opt_in", "optin":
		return OptIn, nil
	case "opt_out", "optout":
		return OptOut, nil
	}
	return "", fmt.Errorf("invalid preference %q: use opt_in or opt_out", s)
}

// ParseTopicFlag parses a "NAME=preference" flag value.
// The name may contain any character except '='; surrounding whitespace is
// trimmed from the name but interior spaces are kept.
func ParseTopicFlag(s string) (TopicPreference, error) {
	name, pref, ok := strings.Cut(s, "=")
	if !ok {
		return TopicPreference{}, fmt.Errorf("invalid topic %q: expected NAME=opt_in or NAME=opt_out", s)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return TopicPreference{}, fmt.Errorf("invalid topic %q: name must not be empty", s)
	}
	p, err := ParsePreference(pref)
	if err != nil {
		return TopicPreference{}, fmt.Errorf("invalid topic %q: %w", s, err)
	}
	return TopicPreference{Topic: name, Preference: p}, nil
}

type topicsFile struct {
	Topics []topicEntry `yaml:"topics"`
}

type topicEntry struct {
	Name       string `yaml:"name"`
	Preference string `yaml:"preference"`
}

// LoadTopicsFile reads an ordered topic list from a YAML file:
//
//	topics:
//	  - name: Weekly Digest
//	    preference: opt_in
//	  - name: Promotions
//	    preference: opt_out
func LoadTopicsFile(path string) ([]TopicPreference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var tf topicsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse topics file %s: %w", path, err)
	}

	topics := make([]TopicPreference, 0, len(tf.Topics))
	for _, e := range tf.Topics {
		p, err := ParsePreference(e.Preference)
		if err != nil {
			return nil, fmt.Errorf("topics file %s, topic %q: %w", path, e.Name, err)
		}
		topics = append(topics, TopicPreference{Topic: e.Name, Preference: p})
	}
	return topics, nil
}
