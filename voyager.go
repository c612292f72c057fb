// Package voyager is the root of the NullVoyager travel concierge agent.
//
// The agent keeps one trip record per chat session, renders a mode-driven system prompt
// (INSPIRATION, PLANNING, BOOKING) and lets a language model call flight, hotel and
// destination lookups with a silent fallback to demo data.
//
// Entry points:
//   - cmd/voyager: the CLI (serve, chat, mcp, session, prompt, version).
//   - pkg/adapters/http: the streaming chat server.
//   - internal/runtime: the turn dispatcher.
package voyager

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the release of this build.
var Version = strings.TrimSpace(version)
