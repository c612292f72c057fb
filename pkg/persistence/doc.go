// Package persistence encodes VoyagerState records for the byte-oriented stores.
//
// Stores hold whatever a Codec produces: plain JSON by default, or an AES-GCM
// envelope when encryption at rest is configured.
package persistence
