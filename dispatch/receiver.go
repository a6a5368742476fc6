package dispatch

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/Masterminds/semver"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/config"
	"github.com/cube2222/distplan/fragment"
	"github.com/cube2222/distplan/metrics"
)

// Executor runs a decoded merge fragment on the receiving node.
type Executor interface {
	Execute(ctx context.Context, f *fragment.MergeFragment) error
}

type ExecutorFunc func(ctx context.Context, f *fragment.MergeFragment) error

func (fn ExecutorFunc) Execute(ctx context.Context, f *fragment.MergeFragment) error {
	return fn(ctx, f)
}

// Receiver accepts framed merge fragments and hands them to an Executor.
type Receiver struct {
	logger         log.Logger
	metrics        *metrics.ClassifiedMetrics
	executor       Executor
	accepted       *semver.Constraints
	decoderOptions []codec.Option
	now            func() time.Time
}

func NewReceiver(cfg *config.Config, logger log.Logger, m *metrics.ClassifiedMetrics, executor Executor) (*Receiver, error) {
	accepted, err := cfg.AcceptedVersions()
	if err != nil {
		return nil, err
	}
	return &Receiver{
		logger:         log.With(logger, "component", "receiver"),
		metrics:        m,
		executor:       executor,
		accepted:       accepted,
		decoderOptions: cfg.DecoderOptions(),
		now:            time.Now,
	}, nil
}

// Receive decodes the frame and executes the fragment.
// The duration of both is recorded under the classification of the fragment's projections.
func (r *Receiver) Receive(ctx context.Context, frame []byte) error {
	start := r.now()
	deliveryID := ulid.MustNew(ulid.Timestamp(start), rand.Reader)
	logger := log.With(r.logger, "delivery", deliveryID.String())

	f, err := fragment.UnmarshalFrame(frame, r.accepted, r.decoderOptions...)
	if err != nil {
		r.metrics.RecordFailedExecution(metrics.NewClassification(ClassificationType), r.now().Sub(start))
		level.Error(logger).Log("msg", "couldn't decode merge fragment", "bytes", len(frame), "err", err)
		return errors.Wrap(err, "couldn't decode merge fragment")
	}

	classification := Classify(f)
	logger = log.With(logger, "correlation", f.ID().String())
	level.Debug(logger).Log(
		"msg", "received merge fragment",
		"upstreams", f.Upstreams(),
		"nodes", len(f.Nodes()),
		"projections", len(f.Projections()),
		"classification", classification.String(),
	)

	if err := ctx.Err(); err != nil {
		r.metrics.RecordFailedExecution(classification, r.now().Sub(start))
		return err
	}

	if err := r.executor.Execute(ctx, f); err != nil {
		r.metrics.RecordFailedExecution(classification, r.now().Sub(start))
		level.Error(logger).Log("msg", "merge fragment execution failed", "err", err)
		return errors.Wrapf(err, "couldn't execute merge fragment %s", f.ID())
	}

	elapsed := r.now().Sub(start)
	r.metrics.RecordValue(classification, elapsed)
	level.Info(logger).Log("msg", "merge fragment executed", "upstreams", f.Upstreams(), "projections", len(f.Projections()), "duration", elapsed)
	return nil
}
