/*
Package domain contains the core domain models of the Voyager travel concierge.

It defines the per-session conversation state, the trip-planning modes, the merge
patches used to update that state, and the normalized records produced by the lookup
tools. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - VoyagerState: the per-session record (Mode, TripPreferences, Cart).
  - Mode: the phase of the conversation (INSPIRATION, PLANNING, BOOKING).
  - StatePatch: a partial update merged into a VoyagerState.
  - ToolCall / ToolResult: a model-requested tool invocation and its outcome.
  - FlightResults, HotelResults, DestinationResults: tool result records.
*/
package domain
