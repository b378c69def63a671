package symbols

import (
	"sort"
	"strings"
)

// Universe names a predefined symbol set
type Universe string

const (
	UniverseTechnology     Universe = "technology"
	UniverseSemiconductors Universe = "semiconductors"
	UniverseFinancials     Universe = "financials"
	UniverseEnergy         Universe = "energy"
	UniverseHealthcare     Universe = "healthcare"
	UniverseConsumer       Universe = "consumer"
	UniverseIndustrials    Universe = "industrials"
	UniverseUtilities      Universe = "utilities"
	UniverseETF            Universe = "etf"
	UniverseSP500          Universe = "sp500"
	UniverseNasdaq100      Universe = "nasdaq100"
	UniverseTest           Universe = "test" // Small set for testing
)

var universes = map[Universe]struct {
	description string
	symbols     []string
}{
	UniverseTechnology:     {"large-cap software and hardware", TechnologySymbols},
	UniverseSemiconductors: {"chip designers, foundries and equipment", SemiconductorSymbols},
	UniverseFinancials:     {"banks, brokers and card networks", FinancialSymbols},
	UniverseEnergy:         {"integrated oil, E&P and refiners", EnergySymbols},
	UniverseHealthcare:     {"pharma, managed care and devices", HealthcareSymbols},
	UniverseConsumer:       {"staples and discretionary retail", ConsumerSymbols},
	UniverseIndustrials:    {"machinery, rail, aerospace and defense", IndustrialSymbols},
	UniverseUtilities:      {"regulated electric and gas utilities", UtilitySymbols},
	UniverseETF:            {"broad index and sector ETFs", ETFSymbols},
	UniverseSP500:          {"S&P 500 top 100 by market cap", SP500Symbols},
	UniverseNasdaq100:      {"NASDAQ-100 components", Nasdaq100Symbols},
	UniverseTest:           {"small mixed set for quick runs", TestSymbols},
}

// GetUniverse returns a copy of the symbols for a universe, nil when unknown
func GetUniverse(u Universe) []string {
	entry, ok := universes[Universe(strings.ToLower(string(u)))]
	if !ok {
		return nil
	}
	out := make([]string, len(entry.symbols))
	copy(out, entry.symbols)
	return out
}

// Info describes a universe for listings
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Size        int    `json:"size"`
}

// List returns every universe sorted by name
func List() []Info {
	out := make([]Info, 0, len(universes))
	for name, entry := range universes {
		out = append(out, Info{Name: string(name), Description: entry.description, Size: len(entry.symbols)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TestSymbols is a small set for quick testing
var TestSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "KO", "PEP",
	"XOM", "CVX", "JPM", "BAC", "SPY",
}

// TechnologySymbols is large-cap technology
var TechnologySymbols = []string{
	"AAPL", "MSFT", "GOOGL", "GOOG", "META", "ORCL", "CRM", "ADBE", "IBM", "CSCO",
	"ACN", "NOW", "INTU", "SAP", "DELL", "HPQ", "HPE",
}

// SemiconductorSymbols is chip designers, foundries and equipment makers
var SemiconductorSymbols = []string{
	"NVDA", "AMD", "INTC", "AVGO", "QCOM", "TXN", "MU", "ADI", "NXPI", "MCHP",
	"ON", "TSM", "ASML", "AMAT", "LRCX", "KLAC", "MRVL",
}

// FinancialSymbols is banks, brokers and payment networks
var FinancialSymbols = []string{
	"JPM", "BAC", "WFC", "C", "GS", "MS", "USB", "PNC", "TFC", "SCHW",
	"V", "MA", "AXP", "BLK", "SPGI", "MCO", "ICE", "CME",
}

// EnergySymbols is integrated oil, exploration and refining
var EnergySymbols = []string{
	"XOM", "CVX", "COP", "EOG", "OXY", "DVN", "FANG", "SLB", "HAL", "BKR",
	"MPC", "PSX", "VLO", "KMI", "WMB",
}

// HealthcareSymbols is pharma, managed care and devices
var HealthcareSymbols = []string{
	"JNJ", "PFE", "MRK", "ABBV", "LLY", "BMY", "AMGN", "GILD", "UNH", "ELV",
	"CVS", "CI", "TMO", "DHR", "ABT", "MDT", "SYK",
}

// ConsumerSymbols is staples and discretionary retail
var ConsumerSymbols = []string{
	"KO", "PEP", "PG", "CL", "KMB", "MDLZ", "GIS", "WMT", "COST", "TGT",
	"HD", "LOW", "MCD", "SBUX", "NKE", "TJX", "ROST",
}

// IndustrialSymbols is machinery, rail, parcel and defense
var IndustrialSymbols = []string{
	"CAT", "DE", "HON", "GE", "MMM", "UNP", "CSX", "NSC", "UPS", "FDX",
	"BA", "RTX", "LMT", "NOC", "GD",
}

// UtilitySymbols is regulated electric and gas utilities
var UtilitySymbols = []string{
	"NEE", "DUK", "SO", "D", "AEP", "EXC", "XEL", "SRE", "PEG", "ED",
	"WEC", "ES", "EIX",
}

// ETFSymbols is broad index, sector and country ETFs
var ETFSymbols = []string{
	"SPY", "IVV", "VOO", "QQQ", "DIA", "IWM", "XLK", "XLF", "XLE", "XLV",
	"XLP", "XLY", "XLI", "XLU", "EWA", "EWC", "GLD", "GDX", "TLT", "IEF",
}

// Nasdaq100Symbols is the NASDAQ-100 components (as of 2024)
var Nasdaq100Symbols = []string{
	"AAPL", "ABNB", "ADBE", "ADI", "ADP", "ADSK", "AEP", "AMAT", "AMD", "AMGN",
	"AMZN", "ANSS", "ARM", "ASML", "AVGO", "AZN", "BIIB", "BKNG", "BKR", "CCEP",
	"CDNS", "CDW", "CEG", "CHTR", "CMCSA", "COST", "CPRT", "CRWD", "CSCO", "CSGP",
	"CSX", "CTAS", "CTSH", "DDOG", "DLTR", "DXCM", "EA", "EXC", "FANG", "FAST",
	"FTNT", "GEHC", "GFS", "GILD", "GOOG", "GOOGL", "HON", "IDXX", "ILMN", "INTC",
	"INTU", "ISRG", "KDP", "KHC", "KLAC", "LIN", "LRCX", "LULU", "MAR", "MCHP",
	"MDB", "MDLZ", "MELI", "META", "MNST", "MRNA", "MRVL", "MSFT", "MU", "NFLX",
	"NVDA", "NXPI", "ODFL", "ON", "ORLY", "PANW", "PAYX", "PCAR", "PDD", "PEP",
	"PYPL", "QCOM", "REGN", "ROP", "ROST", "SBUX", "SMCI", "SNPS", "TEAM", "TMUS",
	"TSLA", "TTD", "TTWO", "TXN", "VRSK", "VRTX", "WBD", "WDAY", "XEL", "ZS",
}

// SP500Symbols is a representative subset of S&P 500 (top 100 by market cap)
// Full S&P 500 would be too slow for free API tier
var SP500Symbols = []string{
	// Technology
	"AAPL", "MSFT", "GOOGL", "GOOG", "AMZN", "NVDA", "META", "TSLA", "AVGO", "ORCL",
	"CRM", "ADBE", "AMD", "ACN", "CSCO", "INTC", "IBM", "TXN", "QCOM", "AMAT",
	// Financials
	"BRK.B", "JPM", "V", "MA", "BAC", "WFC", "GS", "MS", "BLK", "SPGI",
	"AXP", "C", "SCHW", "CB", "MMC", "PGR", "AON", "ICE", "CME", "MCO",
	// Healthcare
	"UNH", "JNJ", "LLY", "PFE", "ABBV", "MRK", "TMO", "ABT", "DHR", "BMY",
	"AMGN", "MDT", "ISRG", "GILD", "CVS", "ELV", "SYK", "REGN", "VRTX", "ZTS",
	// Consumer
	"WMT", "PG", "KO", "PEP", "COST", "MCD", "NKE", "SBUX", "TGT", "LOW",
	"HD", "TJX", "BKNG", "MAR", "ORLY", "AZO", "ROST", "DG", "DLTR", "CMG",
	// Industrials
	"CAT", "DE", "UNP", "HON", "UPS", "BA", "RTX", "LMT", "GE", "MMM",
	// Energy
	"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "VLO", "OXY", "KMI",
	// Communications
	"NFLX", "DIS", "CMCSA", "T", "VZ", "TMUS", "CHTR", "EA", "TTWO", "WBD",
	// Real Estate & Utilities
	"AMT", "PLD", "CCI", "EQIX", "PSA", "NEE", "DUK", "SO", "D", "AEP",
}
