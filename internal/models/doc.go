// Package models defines the genealogy graph for AncestrE.
//
// # Models
//
//   - Person: a node carrying identity, attributes and relationship links
//   - Family: an identifier-keyed collection of Persons that resolves links
//     and answers graph-wide queries (membership, ancestors, descendants)
//
// # Design Principles
//
// 1. **Identifier links**: a Person never holds a pointer to another Person.
//    Mother, father, spouses and children are stored as UUIDs and resolved
//    through the owning Family, the same way the two-file persistence format
//    keys relationships.
// 2. **No cascading cleanup**: removing a member leaves links pointing at it in
//    place. They resolve to nothing until the member is added back.
// 3. **Cycle-safe traversal**: nothing prevents a malformed graph such as
//    `father.father == person`, so every walk keeps a visited set.
package models
