package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	firhandler "firledger/internal/fir/handler"
	firservice "firledger/internal/fir/service"
	firstore "firledger/internal/fir/store"
	"firledger/internal/ledger"
	reghandler "firledger/internal/registry/handler"
	regservice "firledger/internal/registry/service"
	regstore "firledger/internal/registry/store"
	"firledger/internal/token"
	"firledger/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite

	tokens *token.Service
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.tokens = token.NewService("router-test-key", "firledger")
}

// build assembles the full HTTP surface over in-memory backends with one
// bootstrapped admin.
func (s *RouterSuite) build(requireToken bool, health func() error) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	chain := ledger.NewMemory()

	registry := regservice.New(regstore.NewMemory(), chain)
	s.Require().NoError(registry.Bootstrap(s.T().Context(), "0xadmin"))

	fir := firservice.New(firstore.NewMemory(), registry, chain)

	return NewRouter(Options{
		Logger:         logger,
		TokenValidator: s.tokens,
		RequireToken:   requireToken,
		Health:         health,
	},
		firhandler.New(fir, logger),
		reghandler.New(registry, logger),
	)
}

func (s *RouterSuite) TestHealthz() {
	s.Run("healthy", func() {
		router := s.build(false, nil)
		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(s.T(), rr)
		s.Contains(rr.Body.String(), "ok")
	})

	s.Run("dependency failure reported", func() {
		router := s.build(false, func() error { return context.DeadlineExceeded })
		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	})
}

func (s *RouterSuite) TestMetricsEndpoint() {
	router := s.build(false, nil)
	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RouterSuite) TestRequestIDPropagated() {
	router := s.build(false, nil)
	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.NotEmpty(rr.Header().Get("X-Request-Id"))
}

func (s *RouterSuite) TestTokenRequired() {
	router := s.build(true, nil)

	s.Run("request without token rejected", func() {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address": "0xalice", "role": "User", "sender_address": "0xadmin",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("invalid token rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address": "0xalice", "role": "User", "sender_address": "0xadmin",
		})
		req = testutil.WithBearerToken(req, "not-a-token")
		testutil.AssertStatus(s.T(), testutil.DoRequest(router, req), http.StatusUnauthorized)
	})

	s.Run("valid token for the claimed sender accepted", func() {
		tok, err := s.tokens.Generate("0xadmin", time.Hour)
		require.NoError(s.T(), err)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address": "0xalice", "role": "User", "sender_address": "0xadmin",
		})
		req = testutil.WithBearerToken(req, tok)
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(router, req))
	})

	s.Run("valid token for a different identity rejected", func() {
		tok, err := s.tokens.Generate("0ximpostor", time.Hour)
		require.NoError(s.T(), err)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address": "0xalice", "role": "User", "sender_address": "0xadmin",
		})
		req = testutil.WithBearerToken(req, tok)
		testutil.AssertStatus(s.T(), testutil.DoRequest(router, req), http.StatusUnauthorized)
	})
}

func (s *RouterSuite) TestTokenOptional() {
	router := s.build(false, nil)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
		"address": "0xalice", "role": "User", "sender_address": "0xadmin",
	}))
	testutil.AssertStatusOK(s.T(), rr)
}
