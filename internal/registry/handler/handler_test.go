package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"firledger/internal/ledger"
	"firledger/internal/registry/service"
	"firledger/internal/registry/store"
	id "firledger/pkg/domain"
	"firledger/pkg/testutil"
)

type RegistryHandlerSuite struct {
	suite.Suite

	router chi.Router
	svc    *service.Service
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func (s *RegistryHandlerSuite) SetupTest() {
	roles := store.NewMemory()
	s.Require().NoError(roles.Set(context.Background(), "0xadmin", id.RoleAdmin))
	s.svc = service.New(roles, ledger.NewMemory())

	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *RegistryHandlerSuite) TestAssignRole() {
	s.Run("success", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address":        "0xalice",
			"role":           "Police",
			"sender_address": "0xadmin",
		}))
		testutil.AssertStatusOK(s.T(), rr)

		msg, result := testutil.UnmarshalResult[map[string]string](s.T(), rr)
		s.Equal("Role assigned successfully", msg)
		s.Equal("Police", (*result)["role"])
		s.Equal(id.RolePolice, s.svc.GetRole(context.Background(), "0xalice"))
	})

	s.Run("role parsing is case-insensitive", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address":        "0xbob",
			"role":           "court",
			"sender_address": "0xadmin",
		}))
		testutil.AssertStatusOK(s.T(), rr)
		s.Equal(id.RoleCourt, s.svc.GetRole(context.Background(), "0xbob"))
	})

	s.Run("unknown role", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address":        "0xalice",
			"role":           "Judge",
			"sender_address": "0xadmin",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("non-admin forbidden", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address":        "0xalice",
			"role":           "Police",
			"sender_address": "0xnobody",
		}))
		testutil.AssertStatusAndMessage(s.T(), rr, http.StatusForbidden, "only Admin may assign roles")
	})

	s.Run("missing sender", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address": "0xalice",
			"role":    "Police",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("token identity mismatch", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/assign-role", map[string]any{
			"address":        "0xalice",
			"role":           "Police",
			"sender_address": "0xadmin",
		})
		req = testutil.WithTokenIdentity(req, "0ximpostor")
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized)
	})

	s.Run("malformed body", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/assign-role", "{"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *RegistryHandlerSuite) TestGetRole() {
	s.Run("assigned identity", func() {
		rr := testutil.DoRequest(s.router,
			testutil.NewRequest(s.T(), http.MethodGet, "/role?address=0xadmin"))
		testutil.AssertStatusOK(s.T(), rr)
		_, result := testutil.UnmarshalResult[map[string]string](s.T(), rr)
		s.Equal("Admin", (*result)["role"])
	})

	s.Run("unknown identity holds none", func() {
		rr := testutil.DoRequest(s.router,
			testutil.NewRequest(s.T(), http.MethodGet, "/role?address=0xstranger"))
		testutil.AssertStatusOK(s.T(), rr)
		_, result := testutil.UnmarshalResult[map[string]string](s.T(), rr)
		s.Equal("None", (*result)["role"])
	})

	s.Run("missing address", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/role"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}
