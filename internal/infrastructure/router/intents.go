package router

import "github.com/doeshing/aish/internal/domain"

// DefaultIntentPatterns is the built-in intent table. Order is priority
// order: on equal scores the earlier pattern wins, which keeps routing
// reproducible.
func DefaultIntentPatterns() []domain.IntentPattern {
	return []domain.IntentPattern{
		{
			Name:       "git-subcommand",
			Handler:    "git",
			Pattern:    `(?i)^git\s+(status|log|diff|branch|stash list)$`,
			Confidence: 0.90,
			Template:   "git $1",
		},
		{
			Name:       "working-directory",
			Handler:    "filesystem",
			Pattern:    `(?i)^(?:where am i|current (?:directory|dir|folder)|print working directory)$`,
			Confidence: 0.90,
			Template:   "pwd",
		},
		{
			Name:       "list-files",
			Handler:    "filesystem",
			Pattern:    `(?i)^(?:list|show)\s+(?:all\s+)?files$`,
			Confidence: 0.85,
			Template:   "ls -la",
		},
		{
			Name:       "disk-usage",
			Handler:    "system",
			Pattern:    `(?i)^(?:show\s+)?disk\s+(?:usage|space)$`,
			Confidence: 0.85,
			Template:   "df -h",
		},
		{
			Name:       "processes",
			Handler:    "system",
			Pattern:    `(?i)^(?:show|list)\s+processes$`,
			Confidence: 0.80,
			Template:   "ps aux",
		},
		{
			Name:       "search",
			Handler:    "search",
			Pattern:    `(?i)^(?:search|grep)\s+(?:for\s+)?(.+?)\s+in\s+(\S+)$`,
			Confidence: 0.75,
			Template:   `grep -rn "$1" $2`,
		},
		{
			Name:       "package-install",
			Handler:    "package-manager",
			Pattern:    `(?i)^install\s+(?:package\s+)?([a-zA-Z0-9@/._-]+)$`,
			Confidence: 0.70,
			Template:   "npm install $1",
		},
	}
}
