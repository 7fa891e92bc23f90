// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package obsmq adds tracing, metrics, and structured logging around a
// mergearray.PriorityQueue. All three are applied together by a single
// instrument helper: a span around the whole call, count/duration/error
// metrics inside it, and zap log lines before and after the operation.
package obsmq

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/kirsybuu/mergearray"
)

// Queue wraps a mergearray.PriorityQueue, reporting every operation via an
// OpenTelemetry span, a trio of OpenTelemetry metrics (count, duration,
// errors), and zap debug log lines, plus an error log line when the
// operation did not complete.
type Queue[T any, S mergearray.Queue[T]] struct {
	inner *mergearray.PriorityQueue[T, S]
	name  string
}

// Wrap returns an instrumented view of pq. name prefixes the span and metric
// names and is logged as the "queue" field, distinguishing this queue from
// others sharing the same process; the OpenTelemetry instrumentation scope
// is always "obsmq".
func Wrap[T any, S mergearray.Queue[T]](name string, pq *mergearray.PriorityQueue[T, S]) *Queue[T, S] {
	return &Queue[T, S]{inner: pq, name: name}
}

// Insert adds t to the queue, instrumented.
func (q *Queue[T, S]) Insert(ctx context.Context, t T) {
	q.instrument(ctx, "insert", func(ctx context.Context) error {
		q.inner.Insert(t)
		return nil
	})
}

// TryRemoveAny removes and returns an element of approximately low rank,
// instrumented. The "errors" metric and the error-level log line fire when
// no element was found within maxRetries, same as any other operation that
// didn't complete.
func (q *Queue[T, S]) TryRemoveAny(ctx context.Context, maxRetries int) (T, bool) {
	var out T
	var found bool
	q.instrument(ctx, "try_remove_any", func(ctx context.Context) error {
		out, found = q.inner.TryRemoveAny(maxRetries)
		if !found {
			return errNotFound
		}
		return nil
	})
	return out, found
}

// RemoveAny removes and returns an element of approximately low rank,
// blocking until one is available or ctx is done, instrumented.
func (q *Queue[T, S]) RemoveAny(ctx context.Context) (T, error) {
	var out T
	err := q.instrument(ctx, "remove_any", func(ctx context.Context) error {
		var err error
		out, err = q.inner.RemoveAny(ctx)
		return err
	})
	return out, err
}

// Merge atomically fuses q and other, instrumented. MergeWereAlreadyEqual,
// MergeIDClash, and MergeIncompatible are all recorded as errors in the
// metrics/log sense (they're notable outcomes worth surfacing), even though
// mergearray itself treats them as ordinary, non-exceptional results.
func (q *Queue[T, S]) Merge(ctx context.Context, other *Queue[T, S]) mergearray.MergeResult {
	var result mergearray.MergeResult
	_ = q.instrument(ctx, "merge", func(ctx context.Context) error {
		result = q.inner.Merge(other.inner)
		if result != mergearray.MergeSuccess {
			return errMergeResult{result}
		}
		return nil
	})
	return result
}

// instrument runs op inside a span named name, records count/duration/error
// metrics under q.name+"."+name, and logs a debug or error line depending
// on whether op returned an error - the same start-timer, run, record,
// log-on-the-way-out shape every otpsg wrapper uses.
func (q *Queue[T, S]) instrument(ctx context.Context, name string, op func(context.Context) error) error {
	tracer := otel.Tracer("obsmq")
	ctx, span := tracer.Start(ctx, q.name+"."+name)
	defer span.End()

	meter := otel.GetMeterProvider().Meter("obsmq")
	metricBase := q.name + "." + name
	opCounter, _ := meter.Int64Counter(metricBase + ".count")
	opDuration, _ := meter.Float64Histogram(metricBase + ".duration")

	logger := zap.L()
	logger.Debug("starting mergearray operation",
		zap.String("queue", q.name),
		zap.String("operation", name))

	start := time.Now()
	opCounter.Add(ctx, 1)
	err := op(ctx)
	duration := time.Since(start)
	opDuration.Record(ctx, duration.Seconds())

	if err != nil {
		errorCounter, _ := meter.Int64Counter(metricBase + ".errors")
		errorCounter.Add(ctx, 1)
		logger.Error("mergearray operation did not complete",
			zap.String("queue", q.name),
			zap.String("operation", name),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		logger.Debug("mergearray operation completed",
			zap.String("queue", q.name),
			zap.String("operation", name),
			zap.Duration("duration", duration))
	}

	return err
}
