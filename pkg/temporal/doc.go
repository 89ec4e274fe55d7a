// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package temporal implements the Temporal Change Engine: it mutates the
// (current, future) state machine on entities already sitting in a
// pkg/store.Store under Create/Edit/Delete intents produced by an
// external planner. The engine holds no state of its own beyond a
// store.Store handle; Edit and Delete read the entity and then write its
// new temporal state in a second store call.
package temporal
