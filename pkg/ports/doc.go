/*
Package ports defines the driven ports (interfaces) of the streaming scheduler.

These interfaces decouple the scheduling core from transports, data sources and
replay storage, so the same pipeline can stream to an HTTP response, an
in-memory buffer or a replay verifier.

# Key Interfaces

  - Workload: resolves the Shell and Sections for a request.
  - Transport: the raw outbound byte stream behind the StreamingSink.
  - Fetcher: the data-fetch collaborator used by section renderers.
  - RecordingStore: persists replay recordings keyed by RequestID.
*/
package ports
