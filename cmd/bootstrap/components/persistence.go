package components

import (
	"homesit/internal/infra/db"
	"homesit/internal/infra/readstore"
	"homesit/internal/infra/uow"
	"homesit/internal/infra/writerepo"
	"homesit/internal/usecase/queries"
	"homesit/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		// Pool-scoped repositories for single guarded statements outside the
		// unit of work (webhook dedupe, payment ref linking, status patches).
		fx.Annotate(
			writerepo.NewBookingRepository,
			fx.As(new(shared.BookingRepository)),
		),
		fx.Annotate(
			writerepo.NewWebhookEventRepository,
			fx.As(new(shared.WebhookEventRepository)),
		),
		writerepo.NewOutboxRepository,
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
		fx.Annotate(
			readstore.NewPointsReadStore,
			fx.As(new(queries.PointsReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
