package rerank

var accessoryTerms = []string{
	"headphone", "headphones", "earphone", "earphones", "airpod", "airpods", "microphone",
}

// Phones promotes handsets over audio accessories for phone queries.
var Phones = Rule{
	Name:     "phones",
	Triggers: []string{"phone", "mobile", "smartphone", "iphone", "android"},
	NameSignals: []Signal{
		{Terms: []string{"iphone"}, Weight: 12},
		{Terms: []string{"phone", "mobile", "smartphone"}, Weight: 10},
	},
	DescSignals: []Signal{
		{Terms: []string{"iphone"}, Weight: 6},
		{Terms: []string{"phone", "mobile", "smartphone"}, Weight: 4},
	},
	Categories:    []string{"phones", "mobiles"},
	CategoryBoost: 8,
	Penalties:     accessoryTerms,
	NamePenalty:   -20,
	DescPenalty:   -10,
}

// Laptops promotes portable computers over bags, stands and chargers.
var Laptops = Rule{
	Name:     "laptops",
	Triggers: []string{"laptop", "notebook", "macbook", "ultrabook", "chromebook"},
	NameSignals: []Signal{
		{Terms: []string{"macbook"}, Weight: 12},
		{Terms: []string{"laptop", "notebook", "ultrabook", "chromebook"}, Weight: 10},
	},
	DescSignals: []Signal{
		{Terms: []string{"macbook"}, Weight: 6},
		{Terms: []string{"laptop", "notebook", "ultrabook", "chromebook"}, Weight: 4},
	},
	Categories:    []string{"laptops", "computers"},
	CategoryBoost: 8,
	Penalties:     []string{"laptop bag", "laptop sleeve", "laptop stand", "cooling pad", "charger", "adapter"},
	NamePenalty:   -20,
	DescPenalty:   -10,
}

// Cameras promotes camera bodies over bags, tripods and straps.
var Cameras = Rule{
	Name:     "cameras",
	Triggers: []string{"camera", "dslr", "mirrorless"},
	NameSignals: []Signal{
		{Terms: []string{"dslr", "mirrorless"}, Weight: 12},
		{Terms: []string{"camera"}, Weight: 10},
	},
	DescSignals: []Signal{
		{Terms: []string{"dslr", "mirrorless"}, Weight: 6},
		{Terms: []string{"camera"}, Weight: 4},
	},
	Categories:    []string{"cameras", "photography"},
	CategoryBoost: 8,
	Penalties:     []string{"camera bag", "tripod", "lens cap", "camera strap", "memory card"},
	NamePenalty:   -20,
	DescPenalty:   -10,
}

// Builtin returns the default rule table in evaluation order.
func Builtin() []Rule {
	return []Rule{Phones, Laptops, Cameras}
}

// Merge returns custom rules followed by the base rules not overridden by name.
func Merge(custom, base []Rule) []Rule {
	out := make([]Rule, 0, len(custom)+len(base))
	names := make(map[string]struct{}, len(custom))
	for _, r := range custom {
		names[r.Name] = struct{}{}
		out = append(out, r)
	}
	for _, r := range base {
		if _, ok := names[r.Name]; !ok {
			out = append(out, r)
		}
	}
	return out
}
