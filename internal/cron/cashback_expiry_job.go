package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/logger"
)

const cashbackExpiryJobName = "cashback-expiry"

type cashbackExpirer interface {
	ExpireCashback(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type CashbackExpiryJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Members cashbackExpirer
}

// NewCashbackExpiryJob zeroes member cashback balances once their expiry has passed.
func NewCashbackExpiryJob(params CashbackExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member repository required")
	}
	return &cashbackExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		members: params.Members,
		now:     time.Now,
	}, nil
}

type cashbackExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	members cashbackExpirer
	now     func() time.Time
}

func (j *cashbackExpiryJob) Name() string { return cashbackExpiryJobName }

func (j *cashbackExpiryJob) Run(ctx context.Context) (int64, error) {
	now := j.now().UTC()
	var expired int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.members.ExpireCashback(ctx, tx, now)
		expired = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expire cashback: %w", err)
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "members_expired", expired), "expired cashback balances")
	}
	return expired, nil
}
