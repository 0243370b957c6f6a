// Package pointio reads and writes point-set and index-set files.
//
// Two point formats are supported and detected by their leading magic:
//
//   - NPT3: a 16-byte header followed by little-endian float32 x,y,z triples
//     (the in-memory layout of a C float3 array), optionally compressed
//     with LZ4 or Zstandard.
//   - Parquet: one row per point with float32 columns x, y and z.
//
// Assignment results are stored as NIDX files, which share the NPT3 header
// and hold one little-endian int32 per source.
//
// # Header
//
//	magic[4] | version u8 | compression u8 | reserved u16 | count u32 | payloadLen u32
//
// When compression does not shrink the payload it is stored raw and the
// header records CompressionNone.
package pointio
