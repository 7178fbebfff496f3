// Package interfaces defines the shared types and collaborator contracts of the
// DSB client gateway: role claims, enrolment state, the persisted identity
// record, the error envelope used across the public boundary, and the
// interfaces implemented by the claims registry and the storage backends.
//
// Keeping these in one leaf package lets the registry, identity, and storage
// packages depend on the contracts without depending on each other.
package interfaces
