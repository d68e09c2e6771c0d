// internal/handlers/routes.go
package handlers

import "net/http"

const apiV1 = "/api/v1"

// Routes groups the handlers served by the inventory service
type Routes struct {
	Health   *HealthHandler
	Products *ProductHandler
	Sales    *SaleHandler
	Reports  *ReportHandler
}

// Register installs the routes on mux using method-specific patterns.
// Nil handlers are skipped.
func (rt *Routes) Register(mux *http.ServeMux) {
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
	}

	if rt.Products != nil {
		mux.HandleFunc("GET "+apiV1+"/products", rt.Products.ListProducts)
		mux.HandleFunc("GET "+apiV1+"/products/code/{code}", rt.Products.GetProductByCode)
	}

	if rt.Sales != nil {
		mux.HandleFunc("POST "+apiV1+"/sales", rt.Sales.CommitSale)
		mux.HandleFunc("GET "+apiV1+"/sales", rt.Sales.ListSales)
		mux.HandleFunc("GET "+apiV1+"/sales/{id}", rt.Sales.GetSale)
	}

	if rt.Reports != nil {
		mux.HandleFunc("POST "+apiV1+"/reports/daily", rt.Reports.RequestDailyReport)
		mux.HandleFunc("GET "+apiV1+"/reports/daily/{date}", rt.Reports.GetDailyReport)
	}
}
