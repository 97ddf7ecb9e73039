package triggerSync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	resp "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/api/response"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"
)

type Request struct {
	// ExecutionID is optional; one is generated when absent.
	ExecutionID string `json:"execution_id,omitempty" validate:"omitempty,max=128"`
}

type Response struct {
	resp.Response
	ExecutionID string `json:"execution_id"`
}

type SyncStarter interface {
	Start(ctx context.Context, executionID string) (string, error)
}

func New(
	log *slog.Logger,
	starter SyncStarter,
	validate *validator.Validate,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sync.trigger.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		// Empty body means a plain trigger with a generated ID.
		err := render.DecodeJSON(r.Body, &req)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		executionID, err := starter.Start(r.Context(), req.ExecutionID)
		if err != nil {
			if errors.Is(err, storage.ErrRunInProgress) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("A sync run is already in progress"))

				return
			}

			log.Error("Failed to start sync", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Manual sync started", slog.String("execution_id", executionID))

		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, Response{
			Response:    resp.OK(),
			ExecutionID: executionID,
		})
	}
}
