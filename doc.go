// Package psd parses the Adobe Photoshop Document (PSD/PSB) binary
// container and reconstructs per-layer and whole-image pixel data as
// interleaved RGBA.
//
// Decode takes a byte slice and returns an immutable Psd: its header,
// image resources, layer records, and group hierarchy. Layer and
// document pixel planes are decoded lazily on first Rgba()/ToImage()
// call and cached for the value's lifetime. The package does no file
// I/O; callers are responsible for reading the bytes from disk, network,
// or wherever they live.
package psd
