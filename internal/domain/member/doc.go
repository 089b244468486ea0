// Package member contains the core progression model: guild memberships,
// the level curve, and the rules for earning experience from activity.
// This is the heart of the business logic and has no external dependencies.
package member
