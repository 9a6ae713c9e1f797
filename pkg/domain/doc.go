/*
Package domain contains the core domain models for the Grove annotation engine.

It defines the node/wire document model that hosts expose (Nodes, Groups, Inputs and the
Edges between them), the notifications hosts raise, and the presentation values the engine
writes back. This package is kept pure and free of external dependencies like I/O or event
dispatch, following Hexagonal Architecture principles.

# Key Entities

  - Node: A document object with a stable ID, a nickname and a Role (group, param, component).
  - Group: A Node with Role "group" and an ordered, possibly nested, member list.
  - Input: One receiving side of a wire bundle, with its upstream Sources and WireWeight.
  - Event: A host notification (nodes added/removed, group changed, undo state changed).
*/
package domain
