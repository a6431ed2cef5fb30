package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Dotted lowercase segments; hyphens are allowed so channel names like
	// "chat-app" can be used verbatim.
	topicNamePattern  = regexp.MustCompile(`^[a-z][a-z0-9-]*(\.[a-z][a-z0-9-]*)*$`)
	moduleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	reservedPrefixes  = []string{"system.", "internal.", "debug."}
	frameworkPrefixes = []string{"ws.", "auth.", "server."}
)

// ValidateName checks a topic name against the naming convention.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name cannot be empty")
	case len(name) > 100:
		return fmt.Errorf("name too long (max 100 characters)")
	case !topicNamePattern.MatchString(name):
		return fmt.Errorf("name must be lowercase dot-separated segments: %q", name)
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}
	return nil
}

// ValidateDefinition checks a topic before it is registered.
func ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
		for _, prefix := range frameworkPrefixes {
			if strings.HasPrefix(topic.Name(), prefix) {
				return nil
			}
		}
		return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
	case ScopeModule:
		if !moduleNamePattern.MatchString(topic.Module()) {
			return fmt.Errorf("module name must be lowercase alphanumeric with underscores: %q", topic.Module())
		}
		return nil
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}
}
