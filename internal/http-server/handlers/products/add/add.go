package addProduct

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/api/response"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	authMiddlware "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/middleware/auth"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"
)

type Request struct {
	AmazonLink string `json:"amazon_link" validate:"required,url"`
	Title      string `json:"title" validate:"required"`
}

type Response struct {
	resp.Response
	ProductID int64 `json:"product_id"`
}

type ProductSaver interface {
	SaveProduct(ctx context.Context, creatorID int64, amazonLink, title string) (int64, error)
}

func New(
	log *slog.Logger,
	saver ProductSaver,
	validate *validator.Validate,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.add.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		creatorID, ok := r.Context().Value(authMiddlware.UserIDKey).(int64)
		if !ok || creatorID <= 0 {
			log.Error("Creator ID not found in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		productID, err := saver.SaveProduct(ctx, creatorID, req.AmazonLink, req.Title)
		if err != nil {
			log.Error("Failed to save product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Product saved successfully",
			slog.Int64("product_id", productID),
			slog.Int64("creator_id", creatorID),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response:  resp.OK(),
			ProductID: productID,
		})
	}
}
