package getByID

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/api/response"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Product models.Product `json:"product"`
}

type ProductGetter interface {
	ProductByID(ctx context.Context, productID int64) (models.Product, error)
}

func New(
	log *slog.Logger,
	productGetter ProductGetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.get_by_id.New"

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

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		product, err := productGetter.ProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to get product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Product retrieved", slog.Int64("product_id", productID))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Product:  product,
		})
	}
}
