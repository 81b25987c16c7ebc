package minecraft

import "runtime"

// Rule is a conditional gate that can be attached to a library or to an
// argument fragment. It either allows or disallows the item for systems
// matching its conditions.
type Rule struct {
	Action string `json:"action"`
	OS     OS     `json:"os"`
	// Features are additional launcher toggles (like "is_demo_user").
	// A rule with features only matches when every named feature has the
	// required value in the context.
	Features map[string]bool `json:"features"`
}

// OS describes the system properties a [Rule] can match on.
type OS struct {
	Name string `json:"name"`
	// Version of the os (can be a regex string)
	Version string `json:"version"`
	// Arch of the system
	Arch string `json:"arch"`
}

// Rules is the ordered list of rules attached to one item.
type Rules []Rule

// RuleContext is the system a rule list is evaluated against.
// Name and Arch use the launcher metadata vocabulary ("osx", "x64", …),
// see NewRuleContext for the mapping from Go's runtime values.
type RuleContext struct {
	Name     string
	Arch     string
	Features map[string]bool
}

// NewRuleContext builds a RuleContext from Go style os/arch names.
func NewRuleContext(os string, arch string, features map[string]bool) RuleContext {
	if os == "darwin" {
		os = "osx"
	}

	switch arch {
	case "amd64", "x86_64":
		arch = "x64"
	case "386", "i386":
		arch = "x86"
	case "arm":
		arch = "arm32"
	case "arm64", "aarch64":
		arch = "arm64"
	}

	return RuleContext{Name: os, Arch: arch, Features: features}
}

// CurrentRuleContext returns the context for the system we are running on.
func CurrentRuleContext() RuleContext {
	return NewRuleContext(runtime.GOOS, runtime.GOARCH, nil)
}

// Allowed evaluates the rule list against ctx.
// An empty rule list allows. Otherwise the result starts at "disallow"
// and every rule whose conditions match the context overrides it with
// its action, so later rules win over earlier ones. Real metadata opens
// gated items with an unconditional allow rule, which restores the
// allow default for every context the later rules leave alone.
func (r Rules) Allowed(ctx RuleContext) bool {
	if len(r) == 0 {
		return true
	}
	allowed := false
	for _, rule := range r {
		if rule.matches(ctx) {
			allowed = rule.Action == "allow"
		}
	}
	return allowed
}

// matches reports whether every condition of the rule holds for ctx.
// A rule without conditions always matches.
func (r Rule) matches(ctx RuleContext) bool {
	if r.OS.Name != "" && r.OS.Name != ctx.Name {
		return false
	}
	if r.OS.Arch != "" && r.OS.Arch != ctx.Arch {
		return false
	}
	// os version conditions are regexes against a version string we do not
	// track. treat them as non-matching so they never flip the result
	if r.OS.Version != "" {
		return false
	}
	for feature, want := range r.Features {
		if ctx.Features[feature] != want {
			return false
		}
	}
	return true
}
