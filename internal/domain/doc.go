// Package domain defines the core business types for the IGNITE domain
// deliverability service.
//
// Types in this package are pure value objects with no behavior beyond
// validation and derivation. They are the shared language between handlers,
// services, and the registry store.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation and derivation methods are allowed (they're pure functions)
//   - Constants and enums belong here
package domain
