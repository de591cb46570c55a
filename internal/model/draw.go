package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Draw struct {
	ID          int64           `json:"id"`
	CommitteeID int64           `json:"committee_id"`
	Amount      decimal.Decimal `json:"committee_draw_amount"`
	PaidAmount  decimal.Decimal `json:"committee_draw_paid_amount"`
	MinAmount   decimal.Decimal `json:"committee_draw_min_amount"`
	Date        time.Time       `json:"committee_draw_date"`
}

type UserWiseDraw struct {
	ID              int64         `json:"id"`
	CommitteeID     int64         `json:"committee_id"`
	DrawID          int64         `json:"draw_id"`
	UserID          int64         `json:"user_id"`
	IsDrawCompleted bool          `json:"is_draw_completed"`
	User            *UserDrawView `json:"user"`
	CreatedAt       *time.Time    `json:"created_at,omitempty"`
	UpdatedAt       *time.Time    `json:"updated_at,omitempty"`
}

type UserDrawView struct {
	User
	IsDrawCompleted    bool            `json:"is_draw_completed"`
	UserDrawAmountPaid decimal.Decimal `json:"user_draw_amount_paid"`
	FineAmountPaid     decimal.Decimal `json:"fine_amount_paid"`
}

type DrawPayment struct {
	CommitteeID int64 `json:"committee_id" validate:"required"`
	DrawID      int64 `json:"draw_id" validate:"required"`
	UserID      int64 `json:"user_id" validate:"required"`
}

type DrawAmountUpdate struct {
	CommitteeID int64           `json:"committee_id" validate:"required"`
	DrawID      int64           `json:"draw_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
}
