// Package access defines the ordered permission model and the path-based
// policy resolver for the scoped key-value store.
//
// # Access Levels
//
// Four totally ordered levels, highest first:
//
//	Admin > ReadWrite > WriteOnly > ReadOnly
//
// Levels compare with ordinary operators and combine with [Min]. A caller
// never holds more than the ceiling its identity resolves to.
//
// # Path Resolution
//
// A Resolver maps a caller identity token (an opaque, path-shaped string
// supplied by the integrating application) to the maximum level that
// identity is entitled to. Rule prefixes are interpreted against one or
// more configured base paths and matched longest-prefix-first against the
// canonicalized token.
//
// Resolution is pure string policy. The resolver never touches the
// filesystem, and a token fails only when it cannot be canonicalized into
// a well-formed identity.
//
// # Canonicalization
//
// Tokens are normalized before matching: separators are unified, "." and
// ".." segments are resolved lexically, and traversal that climbs back to
// the namespace root is rejected outright. This closes the prefix-escape
// hole where a token such as "/plugins/../core/x" would otherwise shed its
// "/plugins" prefix and match a higher-privilege rule.
package access
