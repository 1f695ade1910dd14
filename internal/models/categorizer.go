package models

// CategoryConfig is one entry of the category vocabulary file.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig is the structure of the category vocabulary file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// DefaultCategories is the vocabulary used when no file is configured.
var DefaultCategories = []CategoryConfig{
	{Name: "ATM", Keywords: []string{"atm", "cash", "withdraw"}},
	{Name: "Auto", Keywords: []string{"auto body"}},
	{Name: "Bars", Keywords: []string{"bar", "pubs", "irish", "brewery"}},
	{Name: "Beauty", Keywords: []string{"body"}},
	{Name: "Clothing", Keywords: []string{"clothing", "shoes", "accessories"}},
	{Name: "Coffee Shops", Keywords: []string{"coffee", "cafe", "tea", "Starbucks", "Dunkin"}},
	{Name: "Credit Card Payment", Keywords: []string{"card payment"}},
	{Name: "Dry Cleaning", Keywords: []string{"cleaners", "dry", "cleaning"}},
	{Name: "Education", Keywords: []string{"kindle", "tuition"}},
	{Name: "Entertainment", Keywords: []string{"event", "show", "movies", "cinema", "theater"}},
	{Name: "Fees", Keywords: []string{"Fee"}},
	{Name: "Food", Keywords: []string{"snack", "Donalds", "Burger King", "KFC", "Subway", "Pizza", "Domino", "Taco Bell", "Wendy", "Chick-fil-A", "Popeyes", "Arby's", "Chipotle"}},
	{Name: "Fuel", Keywords: []string{"fuel", "gas", "petrol"}},
	{Name: "Gifts", Keywords: []string{"donation", "gift"}},
	{Name: "Groceries", Keywords: []string{"groceries", "supermarket", "food"}},
	{Name: "Gym", Keywords: []string{"gym", "fitness", "yoga", "pilates", "crossfit"}},
	{Name: "Home", Keywords: []string{"Ikea"}},
	{Name: "Housing", Keywords: []string{"rent", "mortgage"}},
	{Name: "Income", Keywords: []string{"refund", "deposit", "paycheck", "cashback", "reward"}},
	{Name: "Insurance", Keywords: []string{"insurance"}},
	{Name: "Medical", Keywords: []string{"medical", "doctor", "dentist", "hospital", "clinic"}},
	{Name: "Pets", Keywords: []string{"vet", "veterinary", "pet", "dog", "cat"}},
	{Name: "Pharmacy", Keywords: []string{"pharmacy", "drugstore", "cvs", "walgreens", "rite aid", "duane"}},
	{Name: "Restaurants", Keywords: []string{"restaurant", "lunch", "dinner"}},
	{Name: "Shopping", Keywords: []string{"shopping", "amazon", "walmart", "target", "safeway"}},
	{Name: "Streaming", Keywords: []string{"Netflix", "Spotify", "Hulu", "HBO"}},
	{Name: "Taxes", Keywords: []string{"tax", "irs"}},
	{Name: "Technology", Keywords: []string{"technology", "software", "hardware", "electronics"}},
	{Name: "Transportation", Keywords: []string{"bus", "train", "subway", "metro", "airline", "uber", "lyft", "taxi"}},
	{Name: "Travel", Keywords: []string{"travel", "holiday", "trip", "airbnb", "hotel", "hostel", "resort", "kiwi", "kayak", "expedia", "booking.com"}},
	{Name: "Transfer", Keywords: []string{"payment from"}},
	{Name: "Utilities", Keywords: []string{"electricity", "water", "gas", "phone", "internet"}},
	{Name: CategoryOther, Keywords: []string{"use this when very uncertain about the category"}},
}

// CategoryNames returns the names of cfg in order, always ending with Other.
func CategoryNames(cfg []CategoryConfig) []string {
	names := make([]string, 0, len(cfg)+1)
	hasOther := false
	for _, c := range cfg {
		if c.Name == "" {
			continue
		}
		if c.Name == CategoryOther {
			hasOther = true
		}
		names = append(names, c.Name)
	}
	if !hasOther {
		names = append(names, CategoryOther)
	}
	return names
}
