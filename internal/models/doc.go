// Package models defines the core domain models for the circulation backend.
//
// # Entities
//
//   - Book: bibliographic record; owns any number of copies
//   - BookCopy: one physical, individually tracked instance of a Book
//   - Member: a library patron with a borrowing limit
//   - Transaction: a borrowing transaction linking a member to a copy
//   - Fine: a monetary charge assessed against a transaction
//   - Reservation: a hold a member places on a book
//   - Librarian: a staff account that calls the RPC surface
//
// # Conventions
//
// Relationships are expressed with ID strings rather than pointers. Status
// values are typed string constants so they can be stored and compared
// directly. Transition tables for statuses live next to the status type; the
// circulation engine is the only writer that consults them for loans.
package models
