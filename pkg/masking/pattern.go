package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPattern is the declarative form compiled into CompiledPattern at
// startup.
type builtinPattern struct {
	pattern     string
	replacement string
}

// builtinPatterns covers secret shapes likely to appear in a hunt step's
// captured stdout/stderr: cloud credentials, bearer tokens, and inline
// passwords on a command line.
var builtinPatterns = map[string]builtinPattern{
	"aws_access_key": {
		pattern:     `AKIA[0-9A-Z]{16}`,
		replacement: "[MASKED_AWS_ACCESS_KEY]",
	},
	"aws_secret_key": {
		pattern:     `(?i)aws_secret_access_key\s*=\s*\S+`,
		replacement: "aws_secret_access_key=[MASKED_AWS_SECRET_KEY]",
	},
	"bearer_token": {
		pattern:     `(?i)bearer\s+[a-z0-9._~+/=-]{12,}`,
		replacement: "Bearer [MASKED_TOKEN]",
	},
	"basic_auth_url": {
		pattern:     `[a-z][a-z0-9+.-]*://[^/\s:@]+:[^/\s:@]+@`,
		replacement: "[MASKED_SCHEME]://[MASKED_CREDENTIALS]@",
	},
	"inline_password_flag": {
		pattern:     `(?i)(--?password(?:-?file)?[= ])\S+`,
		replacement: "${1}[MASKED_PASSWORD]",
	},
	"jwt": {
		pattern:     `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`,
		replacement: "[MASKED_JWT]",
	},
}

// patternGroups names built-in subsets so config can select a named group
// (pkg/config's Defaults.OutputMasking.pattern_group) instead of listing
// every pattern.
var patternGroups = map[string][]string{
	"credentials": {
		"aws_access_key", "aws_secret_key", "bearer_token",
		"basic_auth_url", "inline_password_flag", "jwt",
	},
}

// compileBuiltinPatterns compiles every builtinPattern, logging and
// skipping any that fail to compile rather than aborting startup.
func compileBuiltinPatterns() map[string]*CompiledPattern {
	compiled := make(map[string]*CompiledPattern, len(builtinPatterns))
	for name, p := range builtinPatterns {
		re, err := regexp.Compile(p.pattern)
		if err != nil {
			slog.Error("masking: failed to compile built-in pattern, skipping", "pattern", name, "error", err)
			continue
		}
		compiled[name] = &CompiledPattern{Name: name, Regex: re, Replacement: p.replacement}
	}
	return compiled
}

// resolveGroup expands a pattern group name into its compiled patterns,
// skipping unknown names.
func resolveGroup(compiled map[string]*CompiledPattern, groupName string) []*CompiledPattern {
	names, ok := patternGroups[groupName]
	if !ok {
		return nil
	}
	resolved := make([]*CompiledPattern, 0, len(names))
	for _, name := range names {
		if cp, ok := compiled[name]; ok {
			resolved = append(resolved, cp)
		}
	}
	return resolved
}
