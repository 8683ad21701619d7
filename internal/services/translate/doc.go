// Package translate is the HTTP client for the voice translation service.
//
// Translate uploads an audio file (or a URL the server should fetch) as a
// multipart form and decodes the response into a transcript.Result. Every
// response body passes through text repair before decoding, so mojibake
// introduced by the server's encoding is fixed once at the transport layer.
// HTTP failures become *StatusError values carrying a human-readable message;
// network failures are tagged with services.ErrTransport or
// services.ErrTimeout.
package translate
