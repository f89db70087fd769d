package lci

import "strings"

// Activity-name conventions of the source database and of the records the
// pipeline creates.
const (
	MarketForPrefix      = "market for "
	MarketGroupForPrefix = "market group for "

	ProductionMarketPrefix  = "production market for "
	ConsumptionMarketPrefix = "consumption market for "
	TechnologyMixPrefix     = "technology mix for "
)

// IsMarketName reports whether name denotes a source market or market group.
func IsMarketName(name string) bool {
	return strings.Contains(name, "market for") || strings.Contains(name, "market group for")
}

// IsTechnologyName reports whether name denotes a production technology,
// i.e. none of the market or import activities.
func IsTechnologyName(name string) bool {
	return !strings.Contains(name, "market for") &&
		!strings.Contains(name, "market group for") &&
		!strings.Contains(name, "generic market") &&
		!strings.Contains(name, "import from")
}

// IsCopyableMarketName reports whether a source market can stand in for a
// technology mix.
func IsCopyableMarketName(name string) bool {
	return IsMarketName(name) &&
		!strings.Contains(name, "generic market") &&
		!strings.Contains(name, "to market")
}

// IsConsumptionMarket reports whether name is a created consumption market.
func IsConsumptionMarket(name string) bool { return strings.Contains(name, "consumption market") }

// IsProductionMarket reports whether name is a created production market.
func IsProductionMarket(name string) bool { return strings.Contains(name, "production market") }

// IsTechnologyMix reports whether name is a created technology mix.
func IsTechnologyMix(name string) bool { return strings.Contains(name, "technology mix") }

// IsSyntheticMarket reports whether name is any created market or mix.
func IsSyntheticMarket(name string) bool {
	return IsConsumptionMarket(name) || IsProductionMarket(name) || IsTechnologyMix(name)
}

func ProductionMarketName(product string) string  { return ProductionMarketPrefix + product }
func ConsumptionMarketName(product string) string { return ConsumptionMarketPrefix + product }
func TechnologyMixName(product string) string     { return TechnologyMixPrefix + product }

//Personal.AI order the ending
