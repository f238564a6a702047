package tables

// Product names used across the lookup tables.
const (
	ColdDrinks  = "Cold Drinks"
	Tea         = "Tea"
	Samosa      = "Samosa"
	IceCream    = "Ice Cream"
	FreshFruits = "Fresh Fruits"
	Snacks      = "Snacks"
	HotSnacks   = "Hot Snacks"
	Umbrellas   = "Umbrellas"
	Raincoats   = "Raincoats"
)

// Canonical Hyderabad localities.
const (
	BegumBazaar  = "Begum Bazaar"
	Charminar    = "Charminar"
	HitechCity   = "Hitech City"
	Kukatpally   = "Kukatpally"
	Secunderabad = "Secunderabad"
	Ameerpet     = "Ameerpet"
	JubileeHills = "Jubilee Hills"
	BanjaraHills = "Banjara Hills"
	Gachibowli   = "Gachibowli"
	Madhapur     = "Madhapur"
	Kondapur     = "Kondapur"
)

type CompetitionLevel string

const (
	CompetitionHigh   CompetitionLevel = "High"
	CompetitionMedium CompetitionLevel = "Medium"
	CompetitionLow    CompetitionLevel = "Low"
)

// DefaultProducts is the per-unit cost table used when no source overrides it.
func DefaultProducts() []ProductEconomics {
	return []ProductEconomics{
		{Product: ColdDrinks, Cost: 15, Price: 25, Competition: CompetitionHigh, DemandStability: "High", DailyBaseSales: 45},
		{Product: Tea, Cost: 5, Price: 10, Competition: CompetitionMedium, DemandStability: "Very High", DailyBaseSales: 60},
		{Product: Samosa, Cost: 8, Price: 15, Competition: CompetitionMedium, DemandStability: "High", DailyBaseSales: 35},
		{Product: IceCream, Cost: 20, Price: 35, Competition: CompetitionMedium, DemandStability: "Medium", DailyBaseSales: 25},
		{Product: FreshFruits, Cost: 25, Price: 40, Competition: CompetitionHigh, DemandStability: "Medium", DailyBaseSales: 40},
		{Product: HotSnacks, Cost: 12, Price: 20, Competition: CompetitionMedium, DemandStability: "High", DailyBaseSales: 50},
		{Product: Umbrellas, Cost: 150, Price: 250, Competition: CompetitionLow, DemandStability: "Low", DailyBaseSales: 5},
		{Product: Raincoats, Cost: 100, Price: 180, Competition: CompetitionLow, DemandStability: "Low", DailyBaseSales: 3},
	}
}

// DefaultDemographics covers every canonical locality.
func DefaultDemographics() []Demographic {
	return []Demographic{
		{Location: BegumBazaar, Population: 200000, MedianIncome: 15000},
		{Location: Charminar, Population: 120000, MedianIncome: 12000},
		{Location: HitechCity, Population: 250000, MedianIncome: 40000},
		{Location: Kukatpally, Population: 220000, MedianIncome: 18000},
		{Location: Secunderabad, Population: 180000, MedianIncome: 22000},
		{Location: Ameerpet, Population: 160000, MedianIncome: 20000},
		{Location: JubileeHills, Population: 90000, MedianIncome: 60000},
		{Location: BanjaraHills, Population: 100000, MedianIncome: 55000},
		{Location: Gachibowli, Population: 210000, MedianIncome: 38000},
		{Location: Madhapur, Population: 190000, MedianIncome: 35000},
		{Location: Kondapur, Population: 170000, MedianIncome: 30000},
	}
}
