package syncStatus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	resp "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/api/response"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Execution *models.SyncExecution `json:"execution"`
}

type ExecutionGetter interface {
	LastExecution(ctx context.Context) (*models.SyncExecution, error)
}

func New(
	log *slog.Logger,
	getter ExecutionGetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sync.status.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		exec, err := getter.LastExecution(r.Context())
		if err != nil {
			if errors.Is(err, storage.ErrExecutionNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("No sync execution recorded yet"))

				return
			}

			log.Error("Failed to get last execution", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response:  resp.OK(),
			Execution: exec,
		})
	}
}
