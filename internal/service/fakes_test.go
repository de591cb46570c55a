package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yakoovad/committee-engine/internal/repository"
)

// memUserWiseDraws keeps settlement rows in memory and enforces the same
// uniqueness rules as the database indexes.
type memUserWiseDraws struct {
	mu     sync.Mutex
	nextID int64
	rows   map[[3]int64]*repository.UserWiseDraw
	users  map[int64]*repository.User
}

func newMemUserWiseDraws(users ...*repository.User) *memUserWiseDraws {
	m := &memUserWiseDraws{
		rows:  make(map[[3]int64]*repository.UserWiseDraw),
		users: make(map[int64]*repository.User),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserWiseDraws) copyRow(r *repository.UserWiseDraw) *repository.UserWiseDraw {
	c := *r
	if u, ok := m.users[r.UserID]; ok {
		uc := *u
		c.User = &uc
	}
	return &c
}

func (m *memUserWiseDraws) Upsert(_ context.Context, r *repository.UserWiseDraw) (*repository.UserWiseDraw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := [3]int64{r.CommitteeID, r.DrawID, r.UserID}
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	existing, ok := m.rows[key]
	if !ok {
		m.nextID++
		existing = &repository.UserWiseDraw{
			ID:          m.nextID,
			CommitteeID: r.CommitteeID,
			DrawID:      r.DrawID,
			UserID:      r.UserID,
			CreatedAt:   &now,
		}
		m.rows[key] = existing
	}
	existing.UserDrawAmountPaid = r.UserDrawAmountPaid
	existing.FineAmountPaid = r.FineAmountPaid
	existing.UpdatedAt = &now

	return m.copyRow(existing), nil
}

func (m *memUserWiseDraws) Get(_ context.Context, committeeID, drawID, userID int64) (*repository.UserWiseDraw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[[3]int64{committeeID, drawID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.copyRow(r), nil
}

func (m *memUserWiseDraws) find(match func(*repository.UserWiseDraw) bool) []*repository.UserWiseDraw {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make([]*repository.UserWiseDraw, 0)
	for _, r := range m.rows {
		if match(r) {
			res = append(res, m.copyRow(r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (m *memUserWiseDraws) first(match func(*repository.UserWiseDraw) bool) (*repository.UserWiseDraw, error) {
	rows := m.find(match)
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return rows[0], nil
}

func (m *memUserWiseDraws) FindCompletedByUser(_ context.Context, committeeID, userID int64) (*repository.UserWiseDraw, error) {
	return m.first(func(r *repository.UserWiseDraw) bool {
		return r.CommitteeID == committeeID && r.UserID == userID && r.IsDrawCompleted
	})
}

func (m *memUserWiseDraws) FindCompletedByDraw(_ context.Context, committeeID, drawID int64) (*repository.UserWiseDraw, error) {
	return m.first(func(r *repository.UserWiseDraw) bool {
		return r.CommitteeID == committeeID && r.DrawID == drawID && r.IsDrawCompleted
	})
}

func (m *memUserWiseDraws) ListByDraw(_ context.Context, committeeID, drawID int64) ([]*repository.UserWiseDraw, error) {
	return m.find(func(r *repository.UserWiseDraw) bool {
		return r.CommitteeID == committeeID && r.DrawID == drawID
	}), nil
}

func (m *memUserWiseDraws) ListByUser(_ context.Context, committeeID, userID int64) ([]*repository.UserWiseDraw, error) {
	return m.find(func(r *repository.UserWiseDraw) bool {
		return r.CommitteeID == committeeID && r.UserID == userID
	}), nil
}

func (m *memUserWiseDraws) ListByCommittee(_ context.Context, committeeID int64) ([]*repository.UserWiseDraw, error) {
	return m.find(func(r *repository.UserWiseDraw) bool {
		return r.CommitteeID == committeeID
	}), nil
}

func (m *memUserWiseDraws) CountCompleted(_ context.Context, committeeID int64) (int, error) {
	return len(m.find(func(r *repository.UserWiseDraw) bool {
		return r.CommitteeID == committeeID && r.IsDrawCompleted
	})), nil
}

func (m *memUserWiseDraws) MarkCompleted(_ context.Context, committeeID, drawID, userID int64) (*repository.UserWiseDraw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[[3]int64{committeeID, drawID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, other := range m.rows {
		if other == r || !other.IsDrawCompleted || other.CommitteeID != committeeID {
			continue
		}
		if other.DrawID == drawID {
			return nil, repository.ErrDrawClaimed
		}
		if other.UserID == userID {
			return nil, repository.ErrUserClaimed
		}
	}
	r.IsDrawCompleted = true
	return m.copyRow(r), nil
}
