package coingecko_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	coingecko "pricefeed/internal/provider/coingecko"
)

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       marketsBody(t, nil),
			}, nil
		}).
		Times(1)

	// Arrange: create an adapter over a client with the overridden base URL.
	adapter := coingecko.NewAdapter(coingecko.AdapterConfig{},
		coingecko.NewClient("", coingecko.WithHTTPClient(httpClient), coingecko.WithBaseURL(baseURL)))

	// Act: any request exercises the override.
	adapter.ResolveList(context.Background())
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       marketsBody(t, nil),
			}, nil
		}).
		Times(1)

	// Arrange: create an adapter over a client with a custom header.
	adapter := coingecko.NewAdapter(coingecko.AdapterConfig{},
		coingecko.NewClient("", coingecko.WithHTTPClient(httpClient), coingecko.WithHeader(http.Header{
			"foo": []string{"bar"},
		})))

	// Act: any request exercises the header.
	adapter.ResolveList(context.Background())
}
