// Package depot resolves which build of a product to download and turns it
// into an executable download plan.
//
// The pieces, in pipeline order:
//
//   - [Resolve] deterministically picks one build from a remote listing
//     according to a fixed precedence over the caller's [Selector].
//   - A per-generation protocol variant knows how that build's manifest is
//     fetched and how its secure links are requested. The variant is chosen
//     once, from the resolved build, and consumed through one interface.
//   - [Store] persists the last accepted manifest per product, so that a
//     later repair can stay on the generation it was installed from even if
//     the remote listing has changed.
//   - [Orchestrator.Prepare] wires the above into a [DownloadPlan]. Actual
//     byte transfer is the job of an [Executor] supplied by the caller.
package depot
