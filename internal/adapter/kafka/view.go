package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/port"
)

var _ port.SortStatsView = (*SortStatsView)(nil)

// A SortStatsView serves the sort counters of the stats group table.
type SortStatsView struct {
	gv *goka.View
}

func NewSortStatsView(
	seedBrokers []string, group string,
) (SortStatsView, error) {
	const op = "NewSortStatsView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		sortCountCodec{},
	)
	if err != nil {
		return SortStatsView{}, opErr(err, op)
	}

	return SortStatsView{gv}, nil
}

// Run blocks until ctx is done or the view fails.
func (v SortStatsView) Run(ctx context.Context) error {
	const op = "SortStatsView.Run"
	log := slog.With("op", op)

	log.Info("running")
	if err := v.gv.Run(ctx); err != nil {
		log.Error("unexpected fail on run", "err", err)
		return opErr(err, op)
	}
	log.Info("stopped")
	return nil
}

// SortCount returns zero for a sort key that was never counted.
func (v SortStatsView) SortCount(key domain.SortKey) (int64, error) {
	const op = "SortStatsView.SortCount"

	val, err := v.gv.Get(key.String())
	if err != nil {
		return 0, opErr(err, op)
	}
	return sortCountValue(val)
}

func sortCountValue(val any) (int64, error) {
	const op = "sortCountValue"

	if val == nil {
		return 0, nil
	}
	n, ok := val.(sortCount)
	if !ok {
		return 0, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, val), op,
		)
	}
	return int64(n), nil
}
