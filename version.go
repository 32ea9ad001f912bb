package turbo

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/edisonylee/turbocommerce-sub001.Version=...".
var Version = "0.3.0-dev"
