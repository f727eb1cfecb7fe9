package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"settlementapi/src/auth"
	"settlementapi/src/controller"
	"settlementapi/src/handler"
	"settlementapi/src/repository"
)

// Deps are the wired controllers the routes dispatch to.
type Deps struct {
	Orders  *controller.OrderController
	Cash    *controller.CashController
	Payouts *controller.PayoutController
}

// StartServer mounts the settlement routes and blocks until SIGINT/SIGTERM.
func StartServer(port string, deps Deps) {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("\"/healthcheck\" error")
		}
	})

	orderRepo := repository.NewOrderRepository()

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/orders", handler.CreateOrderHandler(deps.Orders))
		r.Get("/orders", handler.ListOrdersHandler(orderRepo))
		r.Get("/orders/{orderID}", handler.GetOrderHandler(orderRepo))
		r.Post("/orders/{orderID}/complete", handler.CompleteOrderHandler(deps.Orders))
		r.Post("/orders/{orderID}/cancel", handler.CancelOrderHandler(deps.Orders))
		r.Post("/orders/{orderID}/fail", handler.FailOrderHandler(deps.Orders))

		r.Post("/cash/movements", handler.RegisterCashMovementHandler(deps.Cash))
		r.Get("/cash/movements", handler.ListMovementsHandler(deps.Cash))
		r.Get("/cash/balances", handler.ListBalancesHandler(deps.Cash))

		r.Post("/payment-requests", handler.GeneratePaymentRequestHandler(deps.Payouts))
		r.Get("/payment-requests/{requestID}", handler.GetPaymentRequestHandler(deps.Payouts))
		r.Post("/payment-requests/{requestID}/payment-info", handler.SubmitPaymentInfoHandler(deps.Payouts))
		r.Post("/payment-requests/{requestID}/approve", handler.ApprovePaymentHandler(deps.Payouts))
		r.Post("/payment-requests/{requestID}/confirm", handler.ConfirmPaymentHandler(deps.Payouts))
		r.Post("/payment-requests/{requestID}/reject", handler.RejectPaymentHandler(deps.Payouts))
		r.Post("/payment-requests/{requestID}/cancel", handler.CancelRequestHandler(deps.Payouts))
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
