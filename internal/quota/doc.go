// Package quota discovers how many bytes a storage substrate will accept.
//
// Substrates rarely expose their real limit, so the Prober measures it by
// writing throwaway payloads of growing size and then bisecting between the
// last size that fit and twice that size. The measurement runs at most once
// per Prober; concurrent callers share the in-flight probe and every later
// caller reads the cached value.
package quota
