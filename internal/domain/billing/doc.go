// Package billing holds the invoice and payment domain: suppliers,
// invoices, payments, payment methods, derived payment status, the
// overpayment guard, period filtering and dashboard aggregation.
//
// All monetary values are integer cents (valueobject.Money); derived
// values such as paid status and dashboard metrics are recomputed from
// invoices and payments on every read and never persisted.
package billing
