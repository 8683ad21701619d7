// Package app wires the storage substrate, history store, quota prober, usage
// reporter, and translation client into one Session built from config.
//
// A Session is the process-scoped owner of those components: it opens the
// substrate once, shares it between the store, the prober, and the reporter,
// and closes it on Close. Translate runs the full flow: upload, transport
// repair, and a best-effort history save.
package app
