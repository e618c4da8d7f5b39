package cache_mocks

//go:generate mockgen -source=../cache.go -destination=cache_mocks.go -package=cache_mocks
