// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package participantsrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m33pooh/plookaraid/pkg/adapter/db/postgres"
	"github.com/m33pooh/plookaraid/pkg/core/model"
)

var activeStatuses = []string{
	string(model.ParticipantConfirmed), string(model.ParticipantPickedUp),
}

type gParticipant struct {
	ID            uuid.UUID  `gorm:"primaryKey;type:uuid"`
	RouteID       uuid.UUID  `gorm:"type:uuid"`
	RequesterID   uuid.UUID  `gorm:"type:uuid"`
	RequestID     *uuid.UUID `gorm:"type:uuid"`
	ReservationID uuid.UUID  `gorm:"type:uuid"`
	Weight        int64
	Status        string
	JoinedAt      time.Time
	Share         int64
}

func (gp *gParticipant) TableName() string {
	return "participants"
}

func (gp *gParticipant) Model() *model.Participant {
	return &model.Participant{
		ID:            gp.ID,
		RouteID:       gp.RouteID,
		RequesterID:   gp.RequesterID,
		RequestID:     gp.RequestID,
		ReservationID: gp.ReservationID,
		Weight:        model.Weight(gp.Weight),
		Status:        model.ParticipantStatus(gp.Status),
		JoinedAt:      gp.JoinedAt.UTC(),
		Share:         model.Money(gp.Share),
	}
}

func models(gps []gParticipant) []*model.Participant {
	ps := make([]*model.Participant, len(gps))
	for i := range gps {
		ps[i] = gps[i].Model()
	}
	return ps
}

func Create[Q postgres.Queryer](
	ctx context.Context, q Q, p *model.Participant,
) (*model.Participant, error) {
	gp := gParticipant{
		ID:            p.ID,
		RouteID:       p.RouteID,
		RequesterID:   p.RequesterID,
		RequestID:     p.RequestID,
		ReservationID: p.ReservationID,
		Weight:        int64(p.Weight),
		Status:        string(p.Status),
		JoinedAt:      p.JoinedAt,
		Share:         int64(p.Share),
	}
	if gp.ID == uuid.Nil {
		gp.ID = uuid.New()
	}
	if gp.JoinedAt.IsZero() {
		gp.JoinedAt = time.Now().UTC()
	}
	if err := q.GORM(ctx).Create(&gp).Error; err != nil {
		return nil, fmt.Errorf("inserting participant: %w", postgres.Classify(err))
	}
	return gp.Model(), nil
}

func Get[Q postgres.Queryer](
	ctx context.Context, q Q, pid uuid.UUID,
) (*model.Participant, error) {
	var gp gParticipant
	err := q.GORM(ctx).Take(&gp, "id = ?", pid).Error
	switch {
	case postgres.IsNotFound(err):
		return nil, postgres.NotFound("participant", pid)
	case err != nil:
		return nil, fmt.Errorf("selecting participant: %w", err)
	}
	return gp.Model(), nil
}

func ListByRoute[Q postgres.Queryer](
	ctx context.Context, q Q, rid uuid.UUID, active bool,
) ([]*model.Participant, error) {
	gdb := q.GORM(ctx).Where("route_id = ?", rid)
	if active {
		gdb = gdb.Where("status IN ?", activeStatuses)
	}
	var gps []gParticipant
	if err := gdb.Order("joined_at, id").Find(&gps).Error; err != nil {
		return nil, fmt.Errorf("selecting participants: %w", err)
	}
	return models(gps), nil
}

// ListStale returns the CONFIRMED participants of the routes which
// were supposed to travel before the given time.
func ListStale[Q postgres.Queryer](
	ctx context.Context, q Q, before time.Time,
) ([]*model.Participant, error) {
	var gps []gParticipant
	err := q.GORM(ctx).Joins(
		"JOIN routes ON routes.id = participants.route_id",
	).Where(
		"participants.status = ? AND routes.travel_date < ?",
		string(model.ParticipantConfirmed), before,
	).Order("participants.joined_at, participants.id").Find(&gps).Error
	if err != nil {
		return nil, fmt.Errorf("selecting stale participants: %w", err)
	}
	return models(gps), nil
}

func SwapStatus[Q postgres.Queryer](
	ctx context.Context, q Q, pid uuid.UUID, from, to model.ParticipantStatus,
) (bool, error) {
	res := q.GORM(ctx).Model(&gParticipant{}).Where(
		"id = ? AND status = ?", pid, string(from),
	).Update("status", string(to))
	if err := res.Error; err != nil {
		return false, fmt.Errorf("updating participant: %w", postgres.Classify(err))
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := Get(ctx, q, pid); err != nil {
		return false, err
	}
	return false, nil
}

func UpdateShares[Q postgres.Queryer](
	ctx context.Context, q Q, shares map[uuid.UUID]model.Money,
) error {
	for pid, share := range shares {
		err := q.GORM(ctx).Model(&gParticipant{}).Where(
			"id = ?", pid,
		).Update("share", int64(share)).Error
		if err != nil {
			return fmt.Errorf("updating share of %s: %w", pid, err)
		}
	}
	return nil
}
