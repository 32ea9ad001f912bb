/*
Package domain contains the core models for shell-first streaming pages.

It defines the immutable per-workload templates (Shell, SectionSlot, Section),
the per-request values (RequestContext, SectionOutcome, StreamEvent) and the
error taxonomy shared by the scheduler and its collaborators. This package is
kept free of I/O and transport concerns, following Hexagonal Architecture
principles.

# Key Entities

  - Shell: ordered section slots plus the literal markup around them.
  - Section: a named unit of deferred work with a Renderer, timeout, retry policy and fallback.
  - SectionOutcome: the single terminal result of one section for one request.
  - StreamEvent: a sequenced chunk of bytes bound for the response sink.
  - LifecycleHooks: callbacks for observability consumers.
*/
package domain
