// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/inventory_service.go -destination=inventory_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/product_repository.go -destination=product_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sale_repository.go -destination=sale_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/tasks.go -destination=task_enqueuer_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/storage.go -destination=report_storage_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cart.go -destination=cart_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/database.go -destination=database_mock.go -package=mocks
