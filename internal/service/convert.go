package service

import (
	"github.com/shopspring/decimal"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/repository"
)

func committeeFromRepo(c *repository.Committee) *model.Committee {
	return &model.Committee{
		ID:               c.ID,
		Name:             c.Name,
		Amount:           c.Amount,
		MaxMembers:       c.MaxMembers,
		NoOfMonths:       c.NoOfMonths,
		Status:           c.Status,
		Type:             c.Type,
		CreatedBy:        c.CreatedBy,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		FineStartDate:    c.FineStartDate,
		FineAmount:       c.FineAmount,
		ExtraDaysForFine: c.ExtraDaysForFine,
		LotteryAmount:    c.LotteryAmount,
		CreatedAt:        c.CreatedAt,
	}
}

func drawFromRepo(d *repository.Draw) *model.Draw {
	return &model.Draw{
		ID:          d.ID,
		CommitteeID: d.CommitteeID,
		Amount:      d.Amount,
		PaidAmount:  d.PaidAmount,
		MinAmount:   d.MinAmount,
		Date:        d.Date,
	}
}

func userFromRepo(u *repository.User) model.User {
	return model.User{
		ID:      u.ID,
		Name:    u.Name,
		PhoneNo: u.PhoneNo,
		Email:   u.Email,
		Role:    u.Role,
	}
}

func userWiseDrawFromRepo(r *repository.UserWiseDraw) *model.UserWiseDraw {
	res := &model.UserWiseDraw{
		ID:              r.ID,
		CommitteeID:     r.CommitteeID,
		DrawID:          r.DrawID,
		UserID:          r.UserID,
		IsDrawCompleted: r.IsDrawCompleted,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		User: &model.UserDrawView{
			IsDrawCompleted:    r.IsDrawCompleted,
			UserDrawAmountPaid: r.UserDrawAmountPaid,
			FineAmountPaid:     r.FineAmountPaid,
		},
	}
	if r.User != nil {
		res.User.User = userFromRepo(r.User)
	} else {
		res.User.ID = r.UserID
	}
	return res
}

// placeholderDraw is the zero settlement row shown for a member who has none for the draw yet.
func placeholderDraw(committeeID, drawID int64, u *repository.User) *model.UserWiseDraw {
	return &model.UserWiseDraw{
		CommitteeID: committeeID,
		DrawID:      drawID,
		UserID:      u.ID,
		User: &model.UserDrawView{
			User:               userFromRepo(u),
			UserDrawAmountPaid: decimal.Zero,
			FineAmountPaid:     decimal.Zero,
		},
	}
}
