package billing

import (
	"math"
	"sort"
	"time"

	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

// DashboardMetrics aggregates a filtered set of invoice summaries.
// Derived per request, never persisted.
type DashboardMetrics struct {
	TotalInvoices        int               `json:"total_invoices"`
	TotalAmount          valueobject.Money `json:"total_amount_cents"`
	PaidAmount           valueobject.Money `json:"paid_amount_cents"`
	PendingAmount        valueobject.Money `json:"pending_amount_cents"`
	OverdueAmount        valueobject.Money `json:"overdue_amount_cents"`
	PendingInvoices      int               `json:"pending_invoices"`
	OverdueInvoices      int               `json:"overdue_invoices"`
	PaidInvoices         int               `json:"paid_invoices"`
	PartialPaidInvoices  int               `json:"partial_paid_invoices"`
	AverageDaysToPayment int               `json:"average_days_to_payment"`
	DueThisWeek          int               `json:"due_this_week"`
	DueNextWeek          int               `json:"due_next_week"`
}

// ComputeDashboardMetrics folds the summaries in one linear pass.
//
// Amount buckets: the paid bucket takes the full face value of paid
// invoices plus the settled portion of partially paid ones; the pending
// bucket takes the remaining balance of pending and partially paid
// invoices; the overdue bucket takes the remaining balance of overdue
// ones. The due-soon windows cover [today, today+7d] and
// (today+7d, today+14d], are mutually exclusive, and skip fully paid
// invoices.
func ComputeDashboardMetrics(summaries []*InvoiceSummary, now time.Time) DashboardMetrics {
	m := DashboardMetrics{}

	today := calendarDate(now)
	weekEnd := today.AddDate(0, 0, 7)
	fortnightEnd := today.AddDate(0, 0, 14)

	var daySamples []int64
	for _, s := range summaries {
		m.TotalInvoices++
		m.TotalAmount = m.TotalAmount.Add(s.Invoice.TotalAmount)

		switch s.Status {
		case StatusPaid:
			m.PaidInvoices++
			m.PaidAmount = m.PaidAmount.Add(s.Invoice.TotalAmount)
		case StatusPartiallyPaid:
			m.PartialPaidInvoices++
			m.PaidAmount = m.PaidAmount.Add(s.PaidAmount)
			m.PendingAmount = m.PendingAmount.Add(s.Remaining)
		case StatusOverdue:
			m.OverdueInvoices++
			m.OverdueAmount = m.OverdueAmount.Add(s.Remaining)
		default:
			m.PendingInvoices++
			m.PendingAmount = m.PendingAmount.Add(s.Remaining)
		}

		if s.Remaining.IsPositive() {
			due := calendarDate(s.Invoice.DueDate)
			switch {
			case !due.Before(today) && !due.After(weekEnd):
				m.DueThisWeek++
			case due.After(weekEnd) && !due.After(fortnightEnd):
				m.DueNextWeek++
			}
		}

		if s.Status == StatusPaid {
			if days := daysToPayment(s); days > 0 {
				daySamples = append(daySamples, days)
			}
		}
	}

	if len(daySamples) > 0 {
		var sum int64
		for _, d := range daySamples {
			sum += d
		}
		m.AverageDaysToPayment = int(math.Round(float64(sum) / float64(len(daySamples))))
	}

	return m
}

// daysToPayment returns ceil(earliest payment date - created at) in whole
// days. Backdated payments can make this zero or negative; callers drop
// those samples.
func daysToPayment(s *InvoiceSummary) int64 {
	earliest := s.EarliestPaymentDate()
	if earliest.IsZero() {
		return 0
	}
	elapsed := earliest.Sub(s.Invoice.CreatedAt)
	return int64(math.Ceil(elapsed.Hours() / 24))
}

// SelectUpcoming returns up to limit summaries that still carry a
// remaining balance, ordered by ascending due date with invoice id as
// the deterministic tie-break.
func SelectUpcoming(summaries []*InvoiceSummary, limit int) []*InvoiceSummary {
	open := make([]*InvoiceSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Remaining.IsPositive() {
			open = append(open, s)
		}
	}

	sort.Slice(open, func(i, j int) bool {
		di, dj := open[i].Invoice.DueDate, open[j].Invoice.DueDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return open[i].Invoice.ID.String() < open[j].Invoice.ID.String()
	})

	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open
}
