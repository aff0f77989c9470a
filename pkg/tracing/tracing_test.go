package tracing

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recorder() (*tracetest.SpanRecorder, func()) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	return rec, func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	}
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartSpan(t *testing.T) {
	Convey("Given a recording tracer provider", t, func() {
		rec, done := recorder()
		defer done()
		ctx := context.Background()

		Convey("When a span ends without error", func() {
			ctx, end := StartSpan(ctx, "rank", attribute.String("pair", "de-en"))
			SetAttributes(ctx, attribute.Int("systems", 3))
			AddEvent(ctx, "ranked", attribute.Int("unranked", 1))
			end(nil)

			Convey("Then the span carries attributes and events", func() {
				spans := rec.Ended()
				So(spans, ShouldHaveLength, 1)
				So(spans[0].Name(), ShouldEqual, "rank")
				v, ok := attr(spans[0], "pair")
				So(ok, ShouldBeTrue)
				So(v.AsString(), ShouldEqual, "de-en")
				v, ok = attr(spans[0], "systems")
				So(ok, ShouldBeTrue)
				So(v.AsInt64(), ShouldEqual, 3)
				So(spans[0].Events(), ShouldHaveLength, 1)
				So(spans[0].Events()[0].Name, ShouldEqual, "ranked")
				So(spans[0].Status().Code, ShouldEqual, codes.Unset)
			})
		})

		Convey("When a stage ends with an error", func() {
			_, end := StartStage(ctx, "load")
			end(errors.New("bad record"))

			Convey("Then the span is marked failed", func() {
				spans := rec.Ended()
				So(spans, ShouldHaveLength, 1)
				So(spans[0].Name(), ShouldEqual, "stage load")
				So(spans[0].Status().Code, ShouldEqual, codes.Error)
				So(spans[0].Status().Description, ShouldEqual, "bad record")
				v, _ := attr(spans[0], "stage")
				So(v.AsString(), ShouldEqual, "load")
			})
		})

		Convey("When stage spans nest", func() {
			ctx, endRun := StartSpan(ctx, "run")
			_, endStage := StartStage(ctx, "cluster")
			endStage(nil)
			endRun(nil)

			Convey("Then the stage is a child of the run", func() {
				spans := rec.Ended()
				So(spans, ShouldHaveLength, 2)
				So(spans[0].Parent().SpanID(), ShouldEqual, spans[1].SpanContext().SpanID())
			})
		})
	})
}
