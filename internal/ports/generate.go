package ports

// Generate mock for TypeLoader from this package.
//go:generate go run go.uber.org/mock/mockgen -package=ports -destination=type_loader_mock.go github.com/ravenjobstore/store/internal/ports TypeLoader

// Generate mock for Signaler from this package.
//go:generate go run go.uber.org/mock/mockgen -package=ports -destination=signaler_mock.go github.com/ravenjobstore/store/internal/ports Signaler
