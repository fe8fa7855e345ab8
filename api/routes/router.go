package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cashvault-backend/api/controllers"
	"github.com/angelmondragon/cashvault-backend/api/middleware"
	"github.com/angelmondragon/cashvault-backend/internal/atmloading"
	"github.com/angelmondragon/cashvault-backend/internal/certificates"
	"github.com/angelmondragon/cashvault-backend/internal/clientledger"
	"github.com/angelmondragon/cashvault-backend/internal/directory"
	"github.com/angelmondragon/cashvault-backend/internal/vault"
	"github.com/angelmondragon/cashvault-backend/pkg/config"
	"github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/redis"
)

// RouterParams groups everything the HTTP surface depends on.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        redis.Pinger
	Idempotency  redis.IdempotencyStore
	Gatherer     prometheus.Gatherer
	Vault        vault.Service
	Reconciler   controllers.Reconciler
	Directory    directory.Service
	ClientLedger clientledger.Service
	Certificates certificates.Service
	ATMLoading   atmloading.Service
}

func NewRouter(p RouterParams) http.Handler {
	logg := p.Logger
	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(p.Config.App.CORSOrigins),
		middleware.Operator(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    p.Redis,
		}))
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	idempotent := middleware.Idempotency(p.Idempotency, logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/vault", func(r chi.Router) {
			r.With(idempotent).Post("/receive", controllers.VaultReceive(p.Vault, logg))
			r.With(idempotent).Post("/withdraw", controllers.VaultWithdraw(p.Vault, logg))
			r.Get("/{vaultId}/balance", controllers.VaultBalance(p.Vault, logg))
			r.Get("/{vaultId}/updates", controllers.VaultUpdates(p.Vault, logg))
			r.Get("/{vaultId}/reconciliation", controllers.VaultReconciliation(p.Reconciler, logg))
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", controllers.ClientCreate(p.Directory, logg))
			r.Get("/", controllers.ClientList(p.Directory, logg))
			r.Route("/{clientId}", func(r chi.Router) {
				r.Get("/", controllers.ClientGet(p.Directory, logg))
				r.Post("/atms", controllers.ATMCreate(p.Directory, logg))
				r.Get("/atms", controllers.ATMList(p.Directory, logg))
				r.Get("/updates", controllers.ClientUpdates(p.ClientLedger, logg))
				r.Get("/balance", controllers.ClientBalance(p.ClientLedger, logg))
				r.Get("/balance-certificate", controllers.ClientBalanceCertificate(p.Certificates, logg))
			})
		})

		r.Route("/atm-loading", func(r chi.Router) {
			r.With(idempotent).Post("/", controllers.ATMLoadingCreate(p.ATMLoading, logg))
			r.Get("/", controllers.ATMLoadingList(p.ATMLoading, logg))
			r.Get("/client/{clientId}", controllers.ATMLoadingListByClient(p.ATMLoading, logg))
			r.Get("/atm/{atmId}", controllers.ATMLoadingListByATM(p.ATMLoading, logg))
			r.Get("/{id}", controllers.ATMLoadingGet(p.ATMLoading, logg))
			r.With(idempotent).Put("/{id}", controllers.ATMLoadingUpdate(p.ATMLoading, logg))
			r.Delete("/{id}", controllers.ATMLoadingDelete(p.ATMLoading, logg))
		})
	})

	return r
}
