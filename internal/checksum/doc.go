// Package checksum computes content digests for tracked assets.
//
// Files are streamed through SHA-256 in fixed 4 KiB chunks so memory use stays
// constant regardless of asset size. The same digest is used when records are
// written (register, scan) and when they are re-verified (validate), so the
// function must stay deterministic: identical bytes always yield an identical
// lowercase hex string.
package checksum
