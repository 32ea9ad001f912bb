/*
Package turbo is a streaming server-side rendering engine for commerce pages.

A page (workload) is split into a static Shell and independent Sections.
The engine flushes the shell prefix immediately, renders every section
concurrently under its own timeout and retry budget, and streams each section
into its slot as soon as the ordering rules allow. Sections that fail or time
out degrade through a fallback (placeholder, skip or abort) instead of failing
the page.

# Key Features

  - Shell-first streaming: the client receives the document head before any data is fetched.
  - Document or ready ordering: byte-identical synchronous output, or out-of-order slot filling.
  - Resilience per section: timeouts, retries with backoff and fallbacks.
  - Single-writer sink with pluggable flush policies.
  - Record and replay: responses can be captured and reproduced byte for byte.

# Usage

	eng, err := turbo.New(
		turbo.WithWorkloads(myWorkload),
		turbo.WithOrdering(domain.OrderReady),
	)
	if err != nil {
		log.Fatal(err)
	}

	rc := domain.NewRequestContext("GET", "/pages/product-page")
	res, err := eng.Render(ctx, "product-page", rc, transport)

Any ports.Transport can receive the stream; pkg/adapters/http provides one
over http.ResponseWriter and a chi handler serving every registered workload.
*/
package turbo
