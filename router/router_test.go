package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/marcelsud/teams-inbox/consumer"
	consumermocks "github.com/marcelsud/teams-inbox/consumer/mocks"
	"github.com/marcelsud/teams-inbox/metrics"
	"github.com/marcelsud/teams-inbox/notification"
	"github.com/marcelsud/teams-inbox/router"
	"github.com/marcelsud/teams-inbox/router/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	resT1C1 = "teams('T1')/channels('C1')/messages('M1')"
	resT1C2 = "teams('T1')/channels('C2')/messages('M2')"
	resT2C1 = "teams('T2')/channels('C1')/messages('M3')"
)

type fixture struct {
	registry  *consumermocks.Registry
	fetcher   *mocks.MessageFetcher
	tokens    *mocks.TokenSource
	deliverer *mocks.Deliverer
}

func newFixture(t *testing.T) fixture {
	return fixture{
		registry:  consumermocks.NewRegistry(t),
		fetcher:   mocks.NewMessageFetcher(t),
		tokens:    mocks.NewTokenSource(t),
		deliverer: mocks.NewDeliverer(t),
	}
}

func (f fixture) router(opts ...router.Option) *router.Router {
	return router.NewRouter(f.registry, f.fetcher, f.tokens, f.deliverer, opts...)
}

func created(resource string) notification.Notification {
	return notification.Notification{
		SubscriptionID: "sub-1",
		ChangeType:     notification.Created,
		Resource:       resource,
	}
}

func userMessage(id string) map[string]any {
	return map[string]any{"id": id, "body": map[string]any{"content": "hello"}}
}

var alpha = consumer.Registration{ID: "alpha", Kind: consumer.KindMessages, TeamID: "T1", ChannelID: "C1"}

func TestRoute_FiltersByTeamAndChannel(t *testing.T) {
	f := newFixture(t)
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{alpha}, nil)
	f.tokens.On("AccessToken", mock.Anything).Return("tok", nil).Once()
	f.fetcher.On("GetMessage", mock.Anything, "tok", resT1C1).Return(userMessage("M1"), nil).Once()
	f.deliverer.On("Deliver", mock.Anything, []consumer.Registration{alpha}, mock.MatchedBy(func(m notification.HydratedMessage) bool {
		return m.Resource == resT1C1 && m.ChangeType == notification.Created && m.Message["id"] == "M1"
	})).Return(1, nil).Once()

	f.router().Route(context.Background(), []notification.Notification{
		created(resT1C1),
		created(resT2C1),
		created(resT1C2),
	})

	f.fetcher.AssertNumberOfCalls(t, "GetMessage", 1)
}

func TestRoute_TeamWideConsumer(t *testing.T) {
	f := newFixture(t)
	teamWide := consumer.Registration{ID: "team", Kind: consumer.KindMessages, TeamID: "T1"}
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{teamWide}, nil)
	f.tokens.On("AccessToken", mock.Anything).Return("tok", nil)
	f.fetcher.On("GetMessage", mock.Anything, "tok", resT1C2).Return(userMessage("M2"), nil)
	f.deliverer.On("Deliver", mock.Anything, []consumer.Registration{teamWide}, mock.Anything).Return(1, nil)

	f.router().Route(context.Background(), []notification.Notification{created(resT1C2)})
}

func TestRoute_EventTypeFilter(t *testing.T) {
	f := newFixture(t)
	updatesOnly := alpha
	updatesOnly.EventTypes = []string{"teams.message.updated"}
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{updatesOnly}, nil)

	f.router().Route(context.Background(), []notification.Notification{created(resT1C1)})

	f.tokens.AssertNotCalled(t, "AccessToken", mock.Anything)
}

func TestRoute_SuppressesSystemMessages(t *testing.T) {
	f := newFixture(t)
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{alpha}, nil)
	f.tokens.On("AccessToken", mock.Anything).Return("tok", nil)
	f.fetcher.On("GetMessage", mock.Anything, "tok", resT1C1).Return(map[string]any{
		"id":   "M1",
		"body": map[string]any{"content": "<systemEventMessage/>"},
	}, nil)

	f.router().Route(context.Background(), []notification.Notification{created(resT1C1)})

	f.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoute_NoConsumerMeansNoFetch(t *testing.T) {
	f := newFixture(t)
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{}, nil)

	f.router().Route(context.Background(), []notification.Notification{created(resT1C1)})

	f.tokens.AssertNotCalled(t, "AccessToken", mock.Anything)
	f.fetcher.AssertNotCalled(t, "GetMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoute_TeamIDMustMatchExactly(t *testing.T) {
	f := newFixture(t)
	teamWide := consumer.Registration{ID: "team", Kind: consumer.KindMessages, TeamID: "T1"}
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{alpha, teamWide}, nil)

	f.router().Route(context.Background(), []notification.Notification{
		created("teams('T10')/channels('C1')/messages('M1')"),
	})

	f.tokens.AssertNotCalled(t, "AccessToken", mock.Anything)
	f.fetcher.AssertNotCalled(t, "GetMessage", mock.Anything, mock.Anything, mock.Anything)
	f.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoute_SkipsNonMessageResources(t *testing.T) {
	f := newFixture(t)

	f.router().Route(context.Background(), []notification.Notification{
		created("teams('T1')/channels('C1')"),
		created("teams('T1')/channels('C1')/messages"),
	})

	f.registry.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestRoute_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{alpha}, nil)
	f.tokens.On("AccessToken", mock.Anything).Return("tok", nil)
	f.fetcher.On("GetMessage", mock.Anything, "tok", resT1C1).Return(nil, errors.New("graph: not found")).Once()
	second := "teams('T1')/channels('C1')/messages('M9')"
	f.fetcher.On("GetMessage", mock.Anything, "tok", second).Return(userMessage("M9"), nil).Once()
	f.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.MatchedBy(func(m notification.HydratedMessage) bool {
		return m.Resource == second
	})).Return(1, nil).Once()

	assert.NotPanics(t, func() {
		f.router().Route(context.Background(), []notification.Notification{created(resT1C1), created(second)})
	})
}

func TestRoute_TokenAndRegistryErrors(t *testing.T) {
	t.Run("token error stops only that notification", func(t *testing.T) {
		f := newFixture(t)
		f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{alpha}, nil)
		f.tokens.On("AccessToken", mock.Anything).Return("", errors.New("failed to refresh access token: invalid_client"))

		f.router().Route(context.Background(), []notification.Notification{created(resT1C1)})

		f.fetcher.AssertNotCalled(t, "GetMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("registry error", func(t *testing.T) {
		f := newFixture(t)
		f.registry.On("List", mock.Anything, consumer.KindMessages).Return(nil, errors.New("boom"))

		f.router().Route(context.Background(), []notification.Notification{created(resT1C1)})

		f.tokens.AssertNotCalled(t, "AccessToken", mock.Anything)
	})
}

func TestRoute_RecordsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	counters, err := metrics.NewCounters(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")

	f := newFixture(t)
	f.registry.On("List", mock.Anything, consumer.KindMessages).Return([]consumer.Registration{alpha}, nil)
	f.tokens.On("AccessToken", mock.Anything).Return("tok", nil)
	f.fetcher.On("GetMessage", mock.Anything, "tok", resT1C1).Return(userMessage("M1"), nil)
	f.deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	f.router(router.WithCounters(counters), router.WithTracer(tracer)).Route(context.Background(), []notification.Notification{
		created(resT1C1),
		created(resT2C1),
	})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	byOutcome := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "teams.notifications" {
			continue
		}
		for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
			outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
			byOutcome[outcome.AsString()] = dp.Value
		}
	}
	assert.Equal(t, map[string]int64{metrics.OutcomeRouted: 1, metrics.OutcomeSkipped: 1}, byOutcome)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "teams.notification.route", ended[0].Name())
}
