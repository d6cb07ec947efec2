package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// MethodMatcher handles glob pattern matching for capability method access
// control on the generic invoke surface.
type MethodMatcher struct {
	allowedPatterns []glob.Glob
	deniedPatterns  []glob.Glob
}

// NewMethodMatcher compiles allowed and denied method patterns.
func NewMethodMatcher(allowed, denied []string) (*MethodMatcher, error) {
	mm := &MethodMatcher{}

	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		mm.allowedPatterns = append(mm.allowedPatterns, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		mm.deniedPatterns = append(mm.deniedPatterns, g)
	}

	return mm, nil
}

// IsAllowed returns true if the method may be invoked under the pattern
// rules. Denied patterns take precedence; with no allowed patterns
// configured, everything not denied is allowed.
func (mm *MethodMatcher) IsAllowed(method string) bool {
	for _, pattern := range mm.deniedPatterns {
		if pattern.Match(method) {
			return false
		}
	}

	if len(mm.allowedPatterns) == 0 {
		return true
	}

	for _, pattern := range mm.allowedPatterns {
		if pattern.Match(method) {
			return true
		}
	}

	return false
}

// MethodMatcher builds the matcher from this configuration. Validate has
// already checked the patterns compile.
func (c *Config) MethodMatcher() (*MethodMatcher, error) {
	return NewMethodMatcher(c.Capabilities.AllowedMethods, c.Capabilities.DeniedMethods)
}
