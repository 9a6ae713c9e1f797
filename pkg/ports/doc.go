/*
Package ports defines the driven ports (interfaces) for the Grove engine.

These interfaces decouple the annotation policies from the application that owns the
document, allowing the same policies to run against an in-memory document, a file-backed
document or a live editor bridge.

# Key Interfaces

  - GraphHost: Exposes the live nodes and groups, raises add/remove/change notifications and
    accepts presentation mutations (group colour, nickname, display mode, wire weight).
  - Subscription: Handle returned by every GraphHost subscription; Close releases it.
  - InstanceRegistry: Records which script instance is stamped on which owner node.
*/
package ports
