package access

import (
	"fmt"
	"sort"
	"strings"
)

// Rule pairs an identity prefix with the maximum level identities under
// that prefix may hold. An absolute prefix must fall under one of the
// resolver's base paths; a relative prefix is joined to every base path.
type Rule struct {
	Prefix string
	Level  Level
}

// UnmatchedPolicy selects what Resolve does when no rule matches a token.
type UnmatchedPolicy string

const (
	// UnmatchedDefault grants Config.DefaultLevel to unmatched tokens.
	UnmatchedDefault UnmatchedPolicy = "default"
	// UnmatchedDeny fails resolution of unmatched tokens with ErrCodeUnmatched.
	UnmatchedDeny UnmatchedPolicy = "deny"
)

// Config contains the construction options for a Resolver. All fields are
// validated eagerly by NewResolver and immutable afterwards.
type Config struct {
	// BasePaths are the roots rule prefixes are interpreted against.
	// At least one is required.
	BasePaths []string

	// Rules map identity prefixes to maximum levels.
	Rules []Rule

	// DefaultLevel is granted when no rule matches and Unmatched is
	// UnmatchedDefault.
	DefaultLevel Level

	// Unmatched selects the no-match policy. Empty means UnmatchedDefault.
	Unmatched UnmatchedPolicy
}

// DefaultConfig returns a Config with the conventional defaults: unmatched
// identities are granted ReadOnly.
func DefaultConfig() Config {
	return Config{
		DefaultLevel: ReadOnly,
		Unmatched:    UnmatchedDefault,
	}
}

type compiledRule struct {
	prefix string
	level  Level
}

// Resolver maps caller identity tokens to their permission ceiling.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	bases        []string
	rules        []compiledRule
	defaultLevel Level
	unmatched    UnmatchedPolicy
}

// NewResolver validates cfg and compiles its rules. Malformed base paths or
// rules fail here with ErrCodeBadConfig, never a later Resolve call.
func NewResolver(cfg Config) (*Resolver, error) {
	if len(cfg.BasePaths) == 0 {
		return nil, ErrBadConfig("at least one base path is required")
	}
	if !cfg.DefaultLevel.Valid() {
		return nil, ErrBadConfig(fmt.Sprintf("invalid default level %d", int(cfg.DefaultLevel)))
	}
	unmatched := cfg.Unmatched
	if unmatched == "" {
		unmatched = UnmatchedDefault
	}
	if unmatched != UnmatchedDefault && unmatched != UnmatchedDeny {
		return nil, ErrBadConfig(fmt.Sprintf("unknown unmatched policy %q", cfg.Unmatched))
	}

	bases := make([]string, 0, len(cfg.BasePaths))
	for _, raw := range cfg.BasePaths {
		base, err := Canonicalize(raw)
		if err != nil {
			return nil, ErrBadConfig(fmt.Sprintf("base path %q: %v", raw, err))
		}
		bases = append(bases, base)
	}

	seen := make(map[string]Level)
	var rules []compiledRule
	add := func(raw, prefix string, level Level) error {
		if held, dup := seen[prefix]; dup {
			if held == level {
				return nil
			}
			return ErrBadConfig(fmt.Sprintf("rule %q: conflicting levels for prefix %q", raw, prefix))
		}
		seen[prefix] = level
		rules = append(rules, compiledRule{prefix: prefix, level: level})
		return nil
	}

	for _, r := range cfg.Rules {
		if r.Prefix == "" {
			return nil, ErrBadConfig("rule with empty prefix")
		}
		if !r.Level.Valid() {
			return nil, ErrBadConfig(fmt.Sprintf("rule %q: invalid level %d", r.Prefix, int(r.Level)))
		}
		if strings.HasPrefix(r.Prefix, "/") || strings.HasPrefix(r.Prefix, `\`) {
			prefix, err := Canonicalize(r.Prefix)
			if err != nil {
				return nil, ErrBadConfig(fmt.Sprintf("rule %q: %v", r.Prefix, err))
			}
			if !underAny(prefix, bases) {
				return nil, ErrBadConfig(fmt.Sprintf("rule %q: prefix outside all base paths", r.Prefix))
			}
			if err := add(r.Prefix, prefix, r.Level); err != nil {
				return nil, err
			}
			continue
		}
		// Relative prefix: one effective rule per base path.
		for _, base := range bases {
			prefix, err := Canonicalize(base + "/" + r.Prefix)
			if err != nil {
				return nil, ErrBadConfig(fmt.Sprintf("rule %q under base %q: %v", r.Prefix, base, err))
			}
			if err := add(r.Prefix, prefix, r.Level); err != nil {
				return nil, err
			}
		}
	}

	// Longest prefix first so the first match wins. The sort is stable and
	// two distinct prefixes of equal length cannot both match one token at
	// a segment boundary, so ordering among equals does not matter.
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].prefix) > len(rules[j].prefix)
	})

	return &Resolver{
		bases:        bases,
		rules:        rules,
		defaultLevel: cfg.DefaultLevel,
		unmatched:    unmatched,
	}, nil
}

// Resolve canonicalizes token and returns the maximum level the identity is
// entitled to. Resolution is pure string policy: no I/O, no clock.
func (r *Resolver) Resolve(token string) (Level, error) {
	canon, err := Canonicalize(token)
	if err != nil {
		return 0, err
	}
	for _, rule := range r.rules {
		if hasPathPrefix(canon, rule.prefix) {
			return rule.level, nil
		}
	}
	if r.unmatched == UnmatchedDeny {
		return 0, ErrUnmatched(canon)
	}
	return r.defaultLevel, nil
}

// BasePaths returns the canonicalized base paths, in configuration order.
func (r *Resolver) BasePaths() []string {
	out := make([]string, len(r.bases))
	copy(out, r.bases)
	return out
}

// Canonicalize normalizes an identity token: separators are unified to "/",
// "." and ".." segments are resolved lexically, and the result is an
// absolute slash-separated path.
//
// A ".." segment that climbs back to the namespace root is rejected. That
// is the prefix-escape defense: "/plugins/../core/x" would otherwise shed
// its "/plugins" prefix and match whatever rule governs "/core".
func Canonicalize(token string) (string, error) {
	if token == "" {
		return "", ErrBadIdentity(token, "empty token")
	}
	if strings.ContainsRune(token, 0) {
		return "", ErrBadIdentity(token, "contains NUL byte")
	}
	norm := strings.ReplaceAll(token, `\`, "/")
	if !strings.HasPrefix(norm, "/") {
		return "", ErrBadIdentity(token, "token must be absolute")
	}

	var stack []string
	for _, seg := range strings.Split(norm, "/") {
		switch seg {
		case "", ".":
			// Redundant separators and self references drop out.
		case "..":
			if len(stack) <= 1 {
				return "", ErrBadIdentity(token, "traversal escapes its base path")
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(stack, "/"), nil
}

// hasPathPrefix reports whether p falls under prefix at a segment boundary,
// so "/core" matches "/core" and "/core/x" but never "/corex".
func hasPathPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// underAny reports whether prefix falls under one of the base paths.
func underAny(prefix string, bases []string) bool {
	for _, base := range bases {
		if hasPathPrefix(prefix, base) {
			return true
		}
	}
	return false
}
