/*
Package ports defines the driven ports (interfaces) of the Voyager agent.

These interfaces decouple the conversation core from external implementations, allowing
the dispatcher to work with various storage backends, language models and tools.

# Key Interfaces

  - StateStore: Responsible for persisting and loading the per-session VoyagerState.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - ChatModel: A streaming, tool-calling language model.
  - Tool: A named capability the model may invoke during a turn.
*/
package ports
