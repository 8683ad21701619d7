// Package textrepair reverses a specific mojibake and normalizes Unicode text.
//
// The translation service sometimes emits UTF-8 text that was decoded one
// byte per character somewhere upstream, so "发展" arrives as "å\u008f\u0091å±\u0095".
// RepairText detects that pattern and re-decodes the bytes, but only when two
// conditions hold: the string has a lead-byte/continuation-byte pair in the
// Latin-1 range, and re-decoding reveals at least one ideograph from the
// configured script that was not already present. The detection is a
// heuristic; the two-part gate keeps legitimate accented Latin text intact.
//
// NormalizeText applies NFC and is always safe to call. Neither function ever
// returns an error: on any failure the input comes back unchanged.
package textrepair
