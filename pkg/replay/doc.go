// Package replay records the inputs of streamed responses and plays them
// back deterministically.
//
// A Recorder decorates the data-fetch collaborator and captures every fetch
// result plus the scheduling decisions of a response under its RequestID.
// A Player serves those fetches back, forces recorded failures and releases
// sections in the recorded emission order, so a replayed response yields a
// byte-identical StreamEvent sequence.
package replay
