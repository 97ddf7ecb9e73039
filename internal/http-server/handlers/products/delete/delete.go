package deleteProduct

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/api/response"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	authMiddlware "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/middleware/auth"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ProductDeleter interface {
	DeleteProduct(ctx context.Context, productID, creatorID int64) error
}

func New(
	log *slog.Logger,
	deleter ProductDeleter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		productID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || productID <= 0 {
			log.Error("Invalid product id")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid product id"))

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

		if err := deleter.DeleteProduct(ctx, productID, creatorID); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to delete product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Product deleted",
			slog.Int64("product_id", productID),
			slog.Int64("creator_id", creatorID),
		)

		render.JSON(w, r, resp.OK())
	}
}
