package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/homwrkk/IUI/internal/metrics"
)

// Router collects everything SetupRoutes mounts.
type Router struct {
	AllowedOrigin   string
	Tiers           *TierHandler
	Membership      *MembershipHandler
	Page            *PageHandler
	Webhooks        *WebhookHandler
	Metrics         *metrics.Metrics
	RequireAuth     mux.MiddlewareFunc
	LoadUser        mux.MiddlewareFunc
	LoginHandler    http.HandlerFunc
	CallbackHandler http.HandlerFunc
}

func SetupRoutes(rt Router) *mux.Router {
	r := mux.NewRouter()

	r.Use(CORSMiddleware(rt.AllowedOrigin))
	r.Use(WideEventMiddleware)
	r.Use(MetricsMiddleware(rt.Metrics))
	r.Use(RecoveryMiddleware)

	// Preflight requests are answered by CORSMiddleware before auth runs.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods("GET")
	r.Handle("/metrics", rt.Metrics.Handler()).Methods("GET")

	if rt.LoginHandler != nil {
		r.HandleFunc("/auth/login", rt.LoginHandler).Methods("GET")
	}
	if rt.CallbackHandler != nil {
		r.HandleFunc("/auth/callback", rt.CallbackHandler).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tiers", rt.Tiers.ListTiers).Methods("GET")
	api.HandleFunc("/tiers/{tier}", rt.Tiers.GetTier).Methods("GET")
	api.HandleFunc("/webhooks/stripe", rt.Webhooks.HandleStripe).Methods("POST")

	members := api.PathPrefix("/membership").Subrouter()
	members.Use(rt.RequireAuth)
	members.Use(rt.LoadUser)
	members.HandleFunc("", rt.Membership.GetStatus).Methods("GET")
	members.HandleFunc("/checkout", rt.Membership.CreateCheckout).Methods("POST")
	members.HandleFunc("/cancel", rt.Membership.Cancel).Methods("POST")

	members.HandleFunc("/page", rt.Page.GetPage).Methods("GET")
	members.HandleFunc("/page", rt.Page.Reset).Methods("DELETE")
	members.HandleFunc("/page/select", rt.Page.SelectTier).Methods("POST")
	members.HandleFunc("/page/cycle", rt.Page.SetCycle).Methods("POST")
	members.HandleFunc("/page/close", rt.Page.CloseModal).Methods("POST")
	members.HandleFunc("/page/complete", rt.Page.CompletePayment).Methods("POST")
	members.HandleFunc("/page/toasts/{id}", rt.Page.DismissToast).Methods("DELETE")

	return r
}
