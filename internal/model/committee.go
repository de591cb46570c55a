package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommitteeStatus string

const (
	CommitteeStatusInactive  CommitteeStatus = "INACTIVE"
	CommitteeStatusActive    CommitteeStatus = "ACTIVE"
	CommitteeStatusCompleted CommitteeStatus = "COMPLETED"
)

// CanTransitionTo reports whether the status may move to next. Transitions only go forward.
func (s CommitteeStatus) CanTransitionTo(next CommitteeStatus) bool {
	switch s {
	case CommitteeStatusInactive:
		return next == CommitteeStatusActive
	case CommitteeStatusActive:
		return next == CommitteeStatusCompleted
	default:
		return false
	}
}

type CommitteeType string

const (
	CommitteeTypeNormal  CommitteeType = "NORMAL"
	CommitteeTypeLottery CommitteeType = "LOTTERY"
)

type Committee struct {
	ID               int64           `json:"id"`
	Name             string          `json:"committee_name"`
	Amount           decimal.Decimal `json:"committee_amount"`
	MaxMembers       int             `json:"commission_max_member"`
	NoOfMonths       int             `json:"no_of_months"`
	Status           CommitteeStatus `json:"committee_status"`
	Type             CommitteeType   `json:"committee_type"`
	CreatedBy        int64           `json:"created_by"`
	StartDate        *time.Time      `json:"start_committee_date,omitempty"`
	EndDate          *time.Time      `json:"end_committee_date,omitempty"`
	FineStartDate    *time.Time      `json:"fine_start_date,omitempty"`
	FineAmount       decimal.Decimal `json:"fine_amount"`
	ExtraDaysForFine int             `json:"extra_days_for_fine"`
	LotteryAmount    decimal.Decimal `json:"lottery_amount"`
	CreatedAt        *time.Time      `json:"created_at,omitempty"`
}

type CommitteeCreate struct {
	Name             string          `json:"committee_name" validate:"required,max=255"`
	Amount           decimal.Decimal `json:"committee_amount" validate:"gt=0"`
	MaxMembers       int             `json:"commission_max_member" validate:"gt=0"`
	NoOfMonths       int             `json:"no_of_months" validate:"gt=0"`
	Type             CommitteeType   `json:"committee_type" validate:"required,oneof=NORMAL LOTTERY"`
	StartDate        *time.Time      `json:"start_committee_date,omitempty"`
	FineStartDate    *time.Time      `json:"fine_start_date,omitempty"`
	FineAmount       decimal.Decimal `json:"fine_amount" validate:"gte=0"`
	ExtraDaysForFine int             `json:"extra_days_for_fine" validate:"gte=0"`
	LotteryAmount    decimal.Decimal `json:"lottery_amount" validate:"gte=0"`
}

type CommitteeAnalysis struct {
	CommitteeID      int64           `json:"committee_id"`
	Name             string          `json:"committee_name"`
	Amount           decimal.Decimal `json:"committee_amount"`
	MaxMembers       int             `json:"commission_max_member"`
	Status           CommitteeStatus `json:"committee_status"`
	Type             CommitteeType   `json:"committee_type"`
	NoOfMonths       int             `json:"no_of_months"`
	FineAmount       decimal.Decimal `json:"fine_amount"`
	ExtraDaysForFine int             `json:"extra_days_for_fine"`
	StartDate        *time.Time      `json:"start_committee_date"`
	Analysis         AnalysisTotals  `json:"analysis"`
}

type AnalysisTotals struct {
	TotalMembers             int             `json:"total_members"`
	TotalCommitteeAmount     decimal.Decimal `json:"total_committee_amount"`
	TotalCommitteePaidAmount decimal.Decimal `json:"total_committee_paid_amount"`
	TotalCommitteeFineAmount decimal.Decimal `json:"total_committee_fine_amount"`
	NoOfDrawsCompleted       int             `json:"no_of_draws_completed"`
	TotalDraws               int             `json:"total_draws"`
}

type CommitteeMember struct {
	ID          int64        `json:"id"`
	CommitteeID int64        `json:"committee_id"`
	UserID      int64        `json:"user_id"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
	User        *MemberStats `json:"user"`
}

// MemberStats is a member's profile together with totals over all of their settlement rows.
type MemberStats struct {
	User
	UserDrawAmountPaid  decimal.Decimal `json:"user_draw_amount_paid"`
	FineAmountPaid      decimal.Decimal `json:"fine_amount_paid"`
	IsUserDrawCompleted bool            `json:"is_user_draw_completed"`
}

type AddMember struct {
	CommitteeID int64  `json:"committee_id" validate:"required"`
	Name        string `json:"name"`
	PhoneNo     string `json:"phone_no" validate:"required,min=6,max=20"`
	Password    string `json:"password,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}
