// Package models holds the GORM persistence models that map billing
// aggregates to database tables. Domain entities carry no ORM tags;
// the repositories convert between entities and these models, so all
// table mappings, column tags and soft-delete plumbing live here.
//
// base.go defines the shared model embeddings (IDs, timestamps,
// tenant scoping); billing.go defines the supplier, invoice, payment
// and payment-method tables.
package models
