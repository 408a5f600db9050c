package teehr

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/teehrview/internal/errors"
)

const testBaseURL = "http://teehr.test"

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})

	opts = append([]Option{WithHTTPClient(hc), WithRetryInterval(time.Millisecond)}, opts...)
	c, err := NewClient(testBaseURL+"/", 5*time.Second, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second)
	assert.Error(t, err)

	_, err = NewClient("://nope", time.Second)
	assert.Error(t, err)
}

func TestClient_ListDatasets(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Get("/datasets").
		Reply(200).
		JSON([]map[string]any{
			{"id": 1, "name": "e0_2_location_example", "description": "Example"},
			{"id": 2, "name": "e1_camels_daily_streamflow"},
		})

	got, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Dataset{ID: 1, Name: "e0_2_location_example", Description: "Example"}, got[0])
	assert.Equal(t, "e1_camels_daily_streamflow", got[1].Name)
	assert.True(t, gock.IsDone())
}

func TestClient_ListDatasets_EmptyBody(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).Get("/datasets").Reply(200).BodyString("[]")

	got, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	c := newTestClient(t, WithMaxRetries(2))
	gock.New(testBaseURL).Get("/datasets").Times(2).Reply(503).BodyString("warming up")
	gock.New(testBaseURL).Get("/datasets").Reply(200).JSON([]map[string]any{{"id": 7, "name": "d"}})

	got, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
	assert.True(t, gock.IsDone())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	c := newTestClient(t, WithMaxRetries(1))
	gock.New(testBaseURL).Get("/datasets").Times(2).Reply(500).BodyString("down")

	_, err := c.ListDatasets(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAPIUnavailable))

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.True(t, gock.IsDone())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	c := newTestClient(t, WithMaxRetries(3))
	gock.New(testBaseURL).Get("/datasets").Reply(404).BodyString("no such route")

	_, err := c.ListDatasets(context.Background())
	require.Error(t, err)

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.False(t, errors.Is(err, errors.ErrAPIUnavailable))
	assert.False(t, errors.IsRetryable(err))
}

func TestClient_TransportErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, WithMaxRetries(0))
	gock.New(testBaseURL).Get("/datasets").ReplyError(errors.New("connection refused"))

	_, err := c.ListDatasets(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAPIUnavailable))
}

func TestClient_DecodeErrorIsPermanent(t *testing.T) {
	c := newTestClient(t, WithMaxRetries(3))
	gock.New(testBaseURL).Get("/datasets").Reply(200).BodyString("{not json")

	_, err := c.ListDatasets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /datasets response")
	assert.True(t, gock.IsDone())
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).Get("/datasets").Persist().Reply(200).JSON([]any{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListDatasets(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_MetricOptions(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Get("/datasets/3/get_metric_fields").
		Reply(200).
		JSON([]string{"kling_gupta_efficiency", "primary_count"})

	got, err := c.MetricOptions(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []MetricOption{{Name: "kling_gupta_efficiency"}, {Name: "primary_count"}}, got)
}

func TestClient_GroupByFields(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Get("/datasets/3/get_data_fields").
		Reply(200).
		JSON([]map[string]string{
			{"name": "primary_location_id", "type": "VARCHAR"},
			{"name": "value_time", "type": "TIMESTAMP"},
		})

	got, err := c.GroupByFields(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, FieldOption{Name: "value_time", Type: "TIMESTAMP"}, got[1])
}

func TestClient_FilterOperators(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Get("/datasets/3/get_filter_operators").
		Reply(200).
		JSON(map[string]string{
			"isin":   "in",
			"eq":     "=",
			"lte":    "<=",
			"bogus":  "~~",
			"islike": "like",
		})

	got, err := c.FilterOperators(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []OperatorOption{
		{Name: "eq", Symbol: OpEq},
		{Name: "lte", Symbol: OpLte},
		{Name: "islike", Symbol: OpLike},
		{Name: "isin", Symbol: OpIn},
	}, got)
}

func TestClient_UniqueFieldValues(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Post("/datasets/3/get_unique_field_values").
		MatchType("json").
		JSON(map[string]string{"field_name": "primary_location_id"}).
		Reply(200).
		JSON([]map[string]any{
			{"unique_primary_location_id_values": "gage-A"},
			{"unique_primary_location_id_values": "gage-B"},
			{"something_else": "ignored"},
		})

	got, err := c.UniqueFieldValues(context.Background(), 3, "primary_location_id")
	require.NoError(t, err)
	assert.Equal(t, []FieldValue{"gage-A", "gage-B"}, got)
}

func TestClient_QueryMetrics(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Post("/datasets/3/get_metrics").
		Reply(200).
		JSON([]map[string]any{
			{"primary_count": 10, "primary_location_id": "gage-A", "kling_gupta_efficiency": 0.52},
			{"primary_count": 12, "primary_location_id": "gage-B", "kling_gupta_efficiency": 0.61},
		})

	q := MetricQuery{
		GroupBy:        []string{"primary_location_id"},
		IncludeMetrics: []string{"kling_gupta_efficiency", "primary_count"},
		Filters:        []Filter{},
	}
	got, err := c.QueryMetrics(context.Background(), 3, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"primary_location_id", "kling_gupta_efficiency", "primary_count"}, got.Columns)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, "0.61", got.Cell(1, "kling_gupta_efficiency"))
}

func TestClient_QueryMetrics_ValidatesFirst(t *testing.T) {
	c := newTestClient(t)

	_, err := c.QueryMetrics(context.Background(), 3, MetricQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidQuery))
	assert.False(t, gock.HasUnmatchedRequest())
}
