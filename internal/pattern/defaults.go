package pattern

// DefaultVersion is the version of the built-in rule set.
const DefaultVersion = "builtin-1"

// DefaultRules returns the built-in keyword rules, used when configuration supplies none.
func DefaultRules() []Rule {
	return []Rule{
		// Income - highest priority
		{
			Pattern:     `\b(PAYROLL|DIRECT\s*DEP|DIRECTDEP|SALARY)\b`,
			Category:    "Income",
			Subcategory: "Salary",
			Priority:    100,
			IsRegex:     true,
		},
		{
			Pattern:     `\b(INTEREST\s*(PAID|EARNED)|DIVIDEND)\b`,
			Category:    "Income",
			Subcategory: "Interest",
			Priority:    95,
			IsRegex:     true,
		},

		// Transfers and financial
		{
			Pattern:     `\b(TRANSFER|XFER|ZELLE|VENMO)\b`,
			Category:    "Transfers",
			Subcategory: "Transfer",
			Priority:    90,
			IsRegex:     true,
		},
		{Pattern: "OVERDRAFT", Category: "Financial", Subcategory: "Bank Fees", Priority: 85},
		{Pattern: "SERVICE CHARGE", Category: "Financial", Subcategory: "Bank Fees", Priority: 85},
		{Pattern: "ATM", Category: "Cash & ATM", Priority: 80},
		{Pattern: "IRS", Category: "Financial", Subcategory: "Taxes", Priority: 80},
		{Pattern: "MORTGAGE", Category: "Housing", Subcategory: "Mortgage/Rent", Priority: 80},

		// Streaming and subscriptions
		{Pattern: "NETFLIX", Category: "Entertainment", Subcategory: "Subscriptions", Payoree: "Netflix", Priority: 60},
		{Pattern: "HULU", Category: "Entertainment", Subcategory: "Subscriptions", Payoree: "Hulu", Priority: 60},
		{Pattern: "SPOTIFY", Category: "Entertainment", Subcategory: "Subscriptions", Payoree: "Spotify", Priority: 60},
		{Pattern: "DISNEY PLUS", Category: "Entertainment", Subcategory: "Subscriptions", Payoree: "Disney+", Priority: 60},
		{Pattern: "YOUTUBE", Category: "Entertainment", Subcategory: "Subscriptions", Priority: 55},
		{Pattern: "TICKETMASTER", Category: "Entertainment", Subcategory: "Concerts/Events", Payoree: "Ticketmaster", Priority: 55},
		{
			Pattern:     `\b(AMC|REGAL|CINEMARK)\b`,
			Category:    "Entertainment",
			Subcategory: "Movies",
			Priority:    50,
			IsRegex:     true,
		},

		// Transportation
		{
			Pattern:     `\b(SHELL|EXXON|MOBIL|CHEVRON|TEXACO|SUNOCO|VALERO|CITGO|SPEEDWAY|PILOT)\b`,
			Category:    "Transportation",
			Subcategory: "Gas",
			Priority:    50,
			IsRegex:     true,
		},
		{
			Pattern:     `\b(E\s*Z\s*PASS|EZPASS|SUNPASS|FASTRAK|TOLL)\b`,
			Category:    "Transportation",
			Subcategory: "Tolls",
			Priority:    50,
			IsRegex:     true,
		},
		{Pattern: "UBER", Category: "Transportation", Subcategory: "Rideshare", Payoree: "Uber", Priority: 45},
		{Pattern: "LYFT", Category: "Transportation", Subcategory: "Rideshare", Payoree: "Lyft", Priority: 45},
		{Pattern: "PARKING", Category: "Transportation", Subcategory: "Parking", Priority: 40},

		// Food
		{Pattern: "STARBUCKS", Category: "Food", Subcategory: "Coffee", Payoree: "Starbucks", Priority: 50},
		{Pattern: "DUNKIN", Category: "Food", Subcategory: "Coffee", Payoree: "Dunkin", Priority: 50},
		{
			Pattern:     `\b(MCDONALD|BURGER KING|WENDY|TACO BELL|CHIPOTLE|PANERA)`,
			Category:    "Food",
			Subcategory: "Fast Food",
			Priority:    45,
			IsRegex:     true,
		},
		{
			Pattern:     `\b(TRADER JOE|WHOLE FOODS|ALDI|PUBLIX|KROGER|SAFEWAY|HARRIS TEETER)`,
			Category:    "Food",
			Subcategory: "Groceries",
			Priority:    45,
			IsRegex:     true,
		},

		// Health
		{
			Pattern:     `\b(CVS|WALGREENS|RITE AID|PHARMACY)\b`,
			Category:    "Health & Medical",
			Subcategory: "Pharmacy",
			Priority:    45,
			IsRegex:     true,
		},
		{Pattern: "DENTAL", Category: "Health & Medical", Subcategory: "Dental", Priority: 40},

		// Shopping
		{
			Pattern:     `\b(AMAZON|AMZN)\b`,
			Category:    "Shopping",
			Subcategory: "Online Shopping",
			Payoree:     "Amazon",
			Priority:    40,
			IsRegex:     true,
		},
		{Pattern: "HOME DEPOT", Category: "Shopping", Subcategory: "Home Goods", Payoree: "Home Depot", Priority: 40},
		{Pattern: "BEST BUY", Category: "Shopping", Subcategory: "Electronics", Payoree: "Best Buy", Priority: 40},
		{
			Pattern:     `\b(WALMART|TARGET|DOLLAR GENERAL|DOLLAR TREE)\b`,
			Category:    "Shopping",
			Subcategory: "General Merchandise",
			Priority:    35,
			IsRegex:     true,
		},

		// Utilities
		{
			Pattern:     `\b(ELECTRIC|WATER|SEWER|INTERNET|COMCAST|XFINITY|VERIZON)\b`,
			Category:    "Housing",
			Subcategory: "Utilities",
			Priority:    30,
			IsRegex:     true,
		},

		// Generic words - lowest priority
		{Pattern: "RESTAURANT", Category: "Food", Subcategory: "Restaurants", Priority: 10},
		{Pattern: "COFFEE", Category: "Food", Subcategory: "Coffee", Priority: 10},
		{Pattern: "GROCERY", Category: "Food", Subcategory: "Groceries", Priority: 10},
		{Pattern: "GYM", Category: "Entertainment", Subcategory: "Sports", Priority: 10},
		{Pattern: "SUBSCRIPTION", Category: "Entertainment", Subcategory: "Subscriptions", Priority: 5},
	}
}

// NewDefaultRuleSet compiles DefaultRules.
func NewDefaultRuleSet() (*RuleSet, error) {
	return NewRuleSet(DefaultVersion, DefaultRules())
}
