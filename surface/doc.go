// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface abstracts the drawable the compositor presents into.
//
// A Surface is a capability interface implemented per platform and injected
// at construction. Two backends are built in:
//
//   - ImageSurface keeps presented frames in memory (headless, tests)
//   - ProviderSurface presents through a GPU device owned by the host,
//     supplied as a gpucontext.DeviceProvider
//
// # Registry
//
// Backends register with a name and priority. NewSurface tries them from
// the highest priority down and returns the first that accepts the
// options, so a compositor created without a device provider falls back to
// the image backend:
//
//	s, err := surface.NewSurface(surface.Options{Width: 800, Height: 600, Provider: app})
//
// Hosts add their own backends with Register.
package surface
