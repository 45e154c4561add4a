package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/lovoo/goka"
	"github.com/niksmo/eco-catalog/pkg/schema"
)

// A processor is used for composition.
//
// Running the underlying [goka.Processor] until its context is done.
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

// run blocks until the goka processor stops.
func (p *processor) run(ctx context.Context) error {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	readyCtx, cancelReady := context.WithCancel(ctx)
	defer cancelReady()

	errc := make(chan error, 1)
	go func() {
		errc <- p.gp.Run(ctx)
		cancelReady()
	}()

	log.Info("preparing...")
	if p.waitForReady(readyCtx) {
		log.Info("running")
	}

	if err := <-errc; err != nil {
		log.Error("stopped", "err", err)
		return opErr(err, p.opPrefix, op)
	}
	log.Info("stopped")
	return nil
}

func (p *processor) waitForReady(ctx context.Context) bool {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("fall down while preparing", "err", err)
		}
		return false
	}
	return true
}

// A sortCount is the number of queries answered with one sort key.
type sortCount int64

// A sortCountCodec used for serde [sortCount]
type sortCountCodec struct{}

func (sortCountCodec) Encode(v any) ([]byte, error) {
	const op = "sortCountCodec.Encode"
	n, ok := v.(sortCount)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return strconv.AppendInt(nil, int64(n), 10), nil
}

func (sortCountCodec) Decode(data []byte) (any, error) {
	const op = "sortCountCodec.Decode"
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return nil, opErr(err, op)
	}
	return sortCount(n), nil
}

// incSortCount returns the table value that follows prev.
func incSortCount(prev any) sortCount {
	n, _ := prev.(sortCount)
	return n + 1
}

// A SortStatsProcessor counts query events per sort key
// from the query stream into its group table.
type SortStatsProcessor struct {
	opPrefix string
	proc     processor
}

func NewSortStatsProc(
	seedBrokers []string,
	inputStream string,
	group string,
	querySerde Serde,
) (*SortStatsProcessor, error) {
	const op = "NewSortStatsProc"

	p := SortStatsProcessor{opPrefix: "SortStatsProcessor"}

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(
			goka.Stream(inputStream),
			newQueryEventCodec(querySerde),
			p.processFn,
		),
		goka.Persist(sortCountCodec{}),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *SortStatsProcessor) Run(ctx context.Context) error {
	return p.proc.run(ctx)
}

func (p *SortStatsProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"

	event, _ := msg.(schema.QueryEventV1)
	n := incSortCount(ctx.Value())
	ctx.SetValue(n)

	slog.Debug("sort counted",
		"op", makeOp(p.opPrefix, op),
		"sort", ctx.Key(),
		"queryID", event.QueryID,
		"count", int64(n),
	)
}
