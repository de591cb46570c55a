package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yakoovad/committee-engine/internal/repository"
)

// drawHour is the local hour every scheduled draw happens at.
const drawHour = 19

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

var SystemClock Clock = ClockFunc(time.Now)

// dateOnly drops the time of day, keeping the calendar date in t's location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func atDrawHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, drawHour, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, negative when b is before a.
func daysBetween(a, b time.Time) int64 {
	from := dateOnly(a)
	to := dateOnly(b.In(a.Location()))
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int64(to.Sub(from) / (24 * time.Hour))
}

func drawStarted(drawDate, now time.Time) bool {
	return daysBetween(drawDate, now) >= 0
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// fineFor returns finePerDay times the days elapsed since the fine start date.
// Before that date the result is negative and is kept as is.
func fineFor(c *repository.Committee, now time.Time) decimal.Decimal {
	if c.FineStartDate == nil {
		return decimal.Zero
	}
	days := daysBetween(*c.FineStartDate, now)
	return c.FineAmount.Mul(decimal.NewFromInt(days))
}

// buildDrawSchedule lays out one draw per month starting at the committee start date,
// or at now when the committee has none.
func buildDrawSchedule(c *repository.Committee, now time.Time) []*repository.Draw {
	base := now
	if c.StartDate != nil {
		base = *c.StartDate
	}

	minAmount := round2(c.Amount.Div(decimal.NewFromInt(int64(c.MaxMembers))))

	draws := make([]*repository.Draw, 0, c.NoOfMonths)
	for i := 0; i < c.NoOfMonths; i++ {
		draws = append(draws, &repository.Draw{
			CommitteeID: c.ID,
			Amount:      decimal.Zero,
			PaidAmount:  decimal.Zero,
			MinAmount:   minAmount,
			Date:        atDrawHour(base.AddDate(0, i, 0)),
		})
	}
	return draws
}

func endDateFor(start *time.Time, months int) *time.Time {
	if start == nil {
		return nil
	}
	end := atDrawHour(start.AddDate(0, months, 0))
	return &end
}
