// Package models defines the actor and movie entities and the relation sets
// joining them.
//
// # Entities
//
//   - [Actor]: a performer with a name and a date of birth. Its Filmography
//     lists the [MovieID]s the actor appears in.
//   - [Movie]: a film with a title and a release year. Its Cast lists the
//     [ActorID]s appearing in it.
//
// The two relation sets describe the same many-to-many association from both
// ends. They are kept symmetric by the relation manager, never by the store.
// Sets are kept sorted and free of duplicates by [Actor.AddMovie],
// [Movie.AddActor] and their removal counterparts.
//
// # Typed IDs
//
// [ActorID] and [MovieID] are int64 primary keys assigned by the store. They
// know their table at compile time:
//
//   - In PostgreSQL they are plain BIGINT columns; the association lives in
//     the movie_cast join table ([CastMember]).
//   - In SurrealDB they marshal to record ids (actor:7, movie:3) through
//     custom CBOR encoding, so relation sets are stored as record links.
//   - In API responses relation sets render with [ActorID.Ref] and
//     [MovieID.Ref], the same table:id notation.
//
// # Whitelists
//
// [ActorFields] and [MovieFields] are the static sets of public field names.
// They drive both write validation and response projection; there is no
// reflection over struct fields.
package models
